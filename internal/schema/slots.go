// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package schema defines the domain registry: the set of preference slots
// the conversational interview asks about for each domain (vehicles,
// laptops, books), ordered by priority so high-value slots are asked first
// and low-value ones only if the question budget allows.
package schema

// SlotPriority ranks how early a slot should be asked about.
type SlotPriority int

const (
	// PriorityHigh slots (budget, primary use case, category) are asked
	// first; they narrow the search space the most.
	PriorityHigh SlotPriority = iota + 1
	PriorityMedium
	PriorityLow
)

// Slot is one preference dimension the interview can ask about.
type Slot struct {
	Name        string
	DisplayName string
	Priority    SlotPriority
	FilterKey   string // maps to session.State.ExplicitFilters, empty if this is a preference

	// FilterKeyAlts holds additional filter keys that also count as filling
	// this slot. The budget slot is the one case that needs this: e-commerce
	// domains split a price range across price_min_cents/price_max_cents,
	// so either one filling counts as the slot being answered.
	FilterKeyAlts []string

	PreferenceKey   string // maps to session.State.Preferences, empty if this is a filter
	ExampleQuestion string
	ExampleReplies  []string
}

// Domain groups a product category's slot set.
type Domain struct {
	Name  string
	Slots []Slot
}

var vehicleSlots = []Slot{
	{Name: "budget", DisplayName: "Budget", Priority: PriorityHigh, FilterKey: "price",
		ExampleQuestion: "What's your budget?",
		ExampleReplies:  []string{"Under $20k", "$20k-$35k", "$35k-$50k", "Over $50k"}},
	{Name: "use_case", DisplayName: "Primary Use", Priority: PriorityHigh, PreferenceKey: "use_case",
		ExampleQuestion: "What will you use this vehicle for?",
		ExampleReplies:  []string{"Daily commute", "Family trips", "Off-road", "Work"}},
	{Name: "body_style", DisplayName: "Body Style", Priority: PriorityHigh, FilterKey: "body_style",
		ExampleQuestion: "What type of vehicle?",
		ExampleReplies:  []string{"SUV", "Sedan", "Truck", "Crossover"}},
	{Name: "features", DisplayName: "Key Features", Priority: PriorityMedium, PreferenceKey: "liked_features",
		ExampleQuestion: "What features matter most?",
		ExampleReplies:  []string{"Fuel efficiency", "Safety", "Tech", "Performance"}},
	{Name: "brand", DisplayName: "Brand", Priority: PriorityMedium, FilterKey: "make",
		ExampleQuestion: "Any brand preference?",
		ExampleReplies:  []string{"No preference", "Toyota/Honda", "Ford/Chevy", "BMW/Audi"}},
	{Name: "fuel_type", DisplayName: "Fuel Type", Priority: PriorityLow, FilterKey: "fuel_type",
		ExampleQuestion: "Fuel preference?",
		ExampleReplies:  []string{"No preference", "Hybrid/Electric", "Gas only"}},
	{Name: "new_vs_used", DisplayName: "New vs Used", Priority: PriorityLow, FilterKey: "is_used",
		ExampleQuestion: "New or used?",
		ExampleReplies:  []string{"New only", "Used only", "Either"}},
}

var laptopSlots = []Slot{
	// use_case, budget, brand are the three HIGH slots the interview gate
	// requires before it will recommend; their declared order here is the
	// fixed question order (use_case -> price -> brand) once the budget
	// slot's own price-priority override is applied.
	{Name: "use_case", DisplayName: "Primary Use", Priority: PriorityHigh, PreferenceKey: "use_case",
		ExampleQuestion: "What will you mainly use it for?",
		ExampleReplies:  []string{"Everyday browsing", "Gaming", "Creative work", "Programming"}},
	{Name: "budget", DisplayName: "Budget", Priority: PriorityHigh, FilterKey: "price_max_cents",
		FilterKeyAlts:   []string{"price_min_cents"},
		ExampleQuestion: "What's your budget?",
		ExampleReplies:  []string{"Under $800", "$800-$1500", "$1500-$2500", "Over $2500"}},
	{Name: "brand", DisplayName: "Brand", Priority: PriorityHigh, FilterKey: "brand",
		ExampleQuestion: "Any brand preference?",
		ExampleReplies:  []string{"No preference", "Apple", "Dell/Lenovo", "ASUS/Razer"}},
	{Name: "portability", DisplayName: "Portability", Priority: PriorityMedium, PreferenceKey: "portability",
		ExampleQuestion: "How important is portability?",
		ExampleReplies:  []string{"Ultra-portable", "Balanced", "Desktop replacement"}},
	{Name: "performance", DisplayName: "Performance Needs", Priority: PriorityMedium, PreferenceKey: "performance_tier",
		ExampleQuestion: "How much horsepower do you need?",
		ExampleReplies:  []string{"Basic tasks", "Multitasking", "Heavy workloads"}},
	{Name: "os", DisplayName: "Operating System", Priority: PriorityLow, FilterKey: "os",
		ExampleQuestion: "Windows, macOS, or no preference?",
		ExampleReplies:  []string{"Windows", "macOS", "No preference"}},
}

var bookSlots = []Slot{
	{Name: "genre", DisplayName: "Genre", Priority: PriorityHigh, FilterKey: "genre",
		ExampleQuestion: "What genre are you in the mood for?",
		ExampleReplies:  []string{"Mystery", "Sci-fi", "Non-fiction", "Literary fiction"}},
	{Name: "use_case", DisplayName: "Reading Goal", Priority: PriorityHigh, PreferenceKey: "use_case",
		ExampleQuestion: "Are you reading for fun, learning, or a book club?",
		ExampleReplies:  []string{"Pure entertainment", "Learning a skill", "Book club pick"}},
	{Name: "length", DisplayName: "Length", Priority: PriorityMedium, PreferenceKey: "length_preference",
		ExampleQuestion: "Quick read or a long one?",
		ExampleReplies:  []string{"Short", "Medium", "Long/epic"}},
	{Name: "tone", DisplayName: "Tone", Priority: PriorityMedium, PreferenceKey: "tone",
		ExampleQuestion: "Looking for something light or intense?",
		ExampleReplies:  []string{"Light and fun", "Dark and intense", "Thought-provoking"}},
	{Name: "format", DisplayName: "Format", Priority: PriorityLow, FilterKey: "format",
		ExampleQuestion: "Print, ebook, or audiobook?",
		ExampleReplies:  []string{"Print", "Ebook", "Audiobook", "No preference"}},
}

// Registry maps a domain name to its Domain definition.
var Registry = map[string]Domain{
	"vehicles": {Name: "vehicles", Slots: vehicleSlots},
	"laptops":  {Name: "laptops", Slots: laptopSlots},
	"books":    {Name: "books", Slots: bookSlots},
}

// DefaultDomain is used when a message doesn't match any known domain's
// keywords; the vehicle interview is the pipeline's original, best-tuned
// domain.
const DefaultDomain = "vehicles"

// Lookup returns a domain's slot set, falling back to DefaultDomain if name
// is unrecognized.
func Lookup(name string) Domain {
	if d, ok := Registry[name]; ok {
		return d
	}
	return Registry[DefaultDomain]
}
