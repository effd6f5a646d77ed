package entities

import "strings"

type SoilType string

const (
	SoilClay  SoilType = "clay"
	SoilSandy SoilType = "sandy"
	SoilLoamy SoilType = "loamy"
	SoilBlack SoilType = "black"
	SoilRed   SoilType = "red"
)

// SoilTypes lists the soil types the fertilizer form offers, in display order.
var SoilTypes = []SoilType{SoilClay, SoilSandy, SoilLoamy, SoilBlack, SoilRed}

func (s SoilType) Valid() bool {
	for _, v := range SoilTypes {
		if v == s {
			return true
		}
	}
	return false
}

// ParseSoilType normalizes user input ("  Clay " -> clay).
func ParseSoilType(s string) SoilType {
	return SoilType(strings.ToLower(strings.TrimSpace(s)))
}

type CropType string

const (
	CropRice      CropType = "rice"
	CropWheat     CropType = "wheat"
	CropMaize     CropType = "maize"
	CropCotton    CropType = "cotton"
	CropSugarcane CropType = "sugarcane"
)

// CropTypes lists the crop types the fertilizer form offers, in display order.
var CropTypes = []CropType{CropRice, CropWheat, CropMaize, CropCotton, CropSugarcane}

func (c CropType) Valid() bool {
	for _, v := range CropTypes {
		if v == c {
			return true
		}
	}
	return false
}

func ParseCropType(s string) CropType {
	return CropType(strings.ToLower(strings.TrimSpace(s)))
}
