package domain

// BestPrice returns the price of the first level, or 0 when the side is empty.
func BestPrice(levels []PriceLevel) float64 {
	if len(levels) == 0 {
		return 0
	}
	return levels[0].Price
}

// TotalNotional returns the sum of price*volume over all levels.
func TotalNotional(levels []PriceLevel) (total float64) {
	for _, level := range levels {
		total += level.Price * level.Volume
	}
	return total
}

// TotalVolume returns the sum of volumes over all levels.
func TotalVolume(levels []PriceLevel) (total float64) {
	for _, level := range levels {
		total += level.Volume
	}
	return total
}
