// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package agent

import "strings"

var laptopBrands = []string{
	"dell", "hp", "lenovo", "apple", "asus", "acer", "microsoft", "msi", "samsung", "razer",
}

// laptopBrandAliases maps a colloquial mention to the brand it actually
// refers to (spec.md §7: "mac" -> "Apple").
var laptopBrandAliases = map[string]string{
	"mac": "Apple", "macbook": "Apple", "surface": "Microsoft", "thinkpad": "Lenovo",
}

var laptopBrandCanonical = map[string]string{
	"hp": "HP", "dell": "Dell", "lenovo": "Lenovo", "apple": "Apple", "asus": "ASUS",
	"acer": "Acer", "microsoft": "Microsoft", "msi": "MSI", "samsung": "Samsung", "razer": "Razer",
}

var laptopOS = map[string]string{
	"windows": "Windows", "macos": "macOS", "chromeos": "ChromeOS", "chrome os": "ChromeOS", "linux": "Linux",
}

var laptopUseCaseKeywords = map[string]string{
	"gaming": "gaming", "game": "gaming",
	"programming": "programming", "coding": "programming", "development": "programming",
	"video editing": "video_editing", "photo editing": "video_editing", "creative work": "video_editing",
	"school": "school", "student": "school", "homework": "school",
	"work": "work", "office": "work", "business": "work",
	"travel": "travel",
	"browsing": "browsing", "everyday": "browsing",
}

var laptopPortabilityKeywords = map[string]string{
	"ultra-portable": "ultra_portable", "ultra portable": "ultra_portable", "lightweight": "ultra_portable",
	"desktop replacement": "desktop_replacement",
}

func extractLaptopFilters(lower string, filters map[string]string) {
	if pr, ok := extractPriceRange(lower); ok {
		applyCentsPrice(pr, filters)
	}
	for kw, canonical := range laptopOS {
		if strings.Contains(lower, kw) {
			filters["os"] = canonical
			break
		}
	}
	if brand, ok := matchLaptopBrand(lower); ok {
		filters["brand"] = brand
	}
}

func matchLaptopBrand(lower string) (string, bool) {
	for alias, brand := range laptopBrandAliases {
		if strings.Contains(lower, alias) {
			return brand, true
		}
	}
	for _, b := range laptopBrands {
		if strings.Contains(lower, b) {
			return laptopBrandCanonical[b], true
		}
	}
	return "", false
}

func extractLaptopPreferences(lower string, preferences map[string]string) {
	for kw, canonical := range laptopUseCaseKeywords {
		if strings.Contains(lower, kw) {
			preferences["use_case"] = canonical
			break
		}
	}
	for kw, canonical := range laptopPortabilityKeywords {
		if strings.Contains(lower, kw) {
			preferences["portability"] = canonical
			break
		}
	}
	if strings.Contains(lower, "heavy workload") || strings.Contains(lower, "high performance") {
		preferences["performance_tier"] = "heavy"
	} else if strings.Contains(lower, "multitask") {
		preferences["performance_tier"] = "multitasking"
	} else if strings.Contains(lower, "basic task") || strings.Contains(lower, "light use") {
		preferences["performance_tier"] = "basic"
	}
}
