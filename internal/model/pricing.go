package model

import "math"

// ApplyDiscount 以「分」為單位計算折扣後價格，四捨五入（遠離零）到分
func ApplyDiscount(price float64, percentage float64) float64 {
	cents := math.Round(price * 100)
	discounted := math.Round(cents * (100 - percentage) / 100)
	return discounted / 100
}
