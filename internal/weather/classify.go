package weather

// Classify maps a weather code to a wallpaper category. Codes outside 0-12
// map to CategoryUnknown.
func Classify(code int) Category {
	switch {
	case code == 0:
		return CategoryClear
	case code >= 1 && code <= 3:
		return CategoryCloudy
	case (code >= 4 && code <= 7) || code == 11 || code == 12:
		return CategoryRain
	case code >= 8 && code <= 10:
		return CategorySnow
	default:
		return CategoryUnknown
	}
}
