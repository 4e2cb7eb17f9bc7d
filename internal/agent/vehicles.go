// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package agent

import "strings"

var vehicleBodyStyles = map[string]string{
	"suv": "SUV", "crossover": "Crossover", "sedan": "Sedan", "truck": "Truck",
	"pickup": "Truck", "coupe": "Coupe", "hatchback": "Hatchback",
	"convertible": "Convertible", "van": "Van", "minivan": "Van", "wagon": "Wagon",
}

var vehicleFuelTypes = map[string]string{
	"hybrid": "Hybrid", "electric": "Electric", "ev": "Electric",
	"diesel": "Diesel", "gasoline": "Gas", "gas only": "Gas",
}

var vehicleMakes = []string{
	"toyota", "honda", "nissan", "mazda", "subaru", "lexus", "acura", "infiniti", "mitsubishi",
	"ford", "chevrolet", "chevy", "gmc", "dodge", "jeep", "ram", "cadillac", "lincoln", "buick", "chrysler", "tesla",
	"bmw", "mercedes-benz", "mercedes", "audi", "porsche", "volkswagen", "vw",
	"hyundai", "kia", "genesis",
	"alfa romeo", "fiat", "maserati", "ferrari", "lamborghini",
	"volvo", "polestar",
	"land rover", "jaguar", "bentley", "rolls-royce", "aston martin", "lotus", "mclaren", "mini",
}

var vehicleMakeCanonical = map[string]string{
	"chevy": "Chevrolet", "vw": "Volkswagen", "mercedes": "Mercedes-Benz",
}

// vehicleNationalityMakes maps a brand-nationality phrase to the comma-
// separated candidate makes it implies (spec.md §7 brand-nationality
// vocabulary); the make filter accepts either a single make or this list.
var vehicleNationalityMakes = map[string]string{
	"german":  "BMW,Mercedes-Benz,Audi,Porsche,Volkswagen",
	"japanese": "Toyota,Honda,Nissan,Mazda,Subaru,Lexus,Acura,Infiniti,Mitsubishi",
	"american": "Ford,Chevrolet,GMC,Dodge,Jeep,Ram,Cadillac,Lincoln,Buick,Chrysler,Tesla",
	"korean":  "Hyundai,Kia,Genesis",
	"italian": "Alfa Romeo,Fiat,Maserati,Ferrari,Lamborghini",
	"swedish": "Volvo,Polestar",
	"british": "Land Rover,Jaguar,Bentley,Rolls-Royce,Aston Martin,Lotus,McLaren,MINI",
	"english": "Land Rover,Jaguar,Bentley,Rolls-Royce,Aston Martin,Lotus,McLaren,MINI",
}

var vehicleUseCaseKeywords = map[string]string{
	"commute": "commute", "daily driver": "commute", "daily drive": "commute",
	"family": "family", "road trip": "family",
	"off-road": "off_road", "off road": "off_road", "overland": "off_road",
	"work": "work", "towing": "work", "hauling": "work",
}

func extractVehicleFilters(lower string, filters map[string]string) {
	if pr, ok := extractPriceRange(lower); ok {
		applyVehiclePrice(pr, filters)
	}
	for kw, canonical := range vehicleBodyStyles {
		if strings.Contains(lower, kw) {
			filters["body_style"] = canonical
			break
		}
	}
	for kw, canonical := range vehicleFuelTypes {
		if strings.Contains(lower, kw) {
			filters["fuel_type"] = canonical
			break
		}
	}
	if strings.Contains(lower, "used") {
		filters["is_used"] = "true"
	} else if strings.Contains(lower, "new only") || strings.Contains(lower, "brand new") {
		filters["is_used"] = "false"
	}

	if make, ok := matchVehicleMake(lower); ok {
		filters["make"] = make
		return
	}
	for nationality, makes := range vehicleNationalityMakes {
		if strings.Contains(lower, nationality) {
			filters["make"] = makes
			return
		}
	}
}

func matchVehicleMake(lower string) (string, bool) {
	for _, m := range vehicleMakes {
		if strings.Contains(lower, m) {
			if canon, ok := vehicleMakeCanonical[m]; ok {
				return canon, true
			}
			return titleCaseWords(m), true
		}
	}
	return "", false
}

// titleCaseWords upper-cases the first letter of each space-separated word,
// leaving hyphenated brand names (e.g. "rolls-royce") capitalized per word.
func titleCaseWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		parts := strings.Split(w, "-")
		for j, p := range parts {
			if p == "" {
				continue
			}
			parts[j] = strings.ToUpper(p[:1]) + p[1:]
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}

func extractVehiclePreferences(lower string, preferences map[string]string) {
	for kw, canonical := range vehicleUseCaseKeywords {
		if strings.Contains(lower, kw) {
			preferences["use_case"] = canonical
			break
		}
	}
	var liked []string
	for _, feature := range []string{"fuel efficient", "fuel efficiency", "safety", "tech", "performance", "spacious", "reliability"} {
		if strings.Contains(lower, feature) {
			liked = append(liked, feature)
		}
	}
	if len(liked) > 0 {
		preferences["liked_features"] = strings.Join(liked, ",")
	}
}
