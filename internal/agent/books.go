// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package agent

import "strings"

var bookGenres = map[string]string{
	"mystery": "Mystery", "fantasy": "Fantasy", "sci-fi": "Science Fiction", "scifi": "Science Fiction",
	"science fiction": "Science Fiction", "romance": "Romance", "thriller": "Thriller",
	"biography": "Biography", "history": "History", "horror": "Horror", "nonfiction": "Nonfiction",
	"non-fiction": "Nonfiction", "literary fiction": "Literary Fiction",
}

var bookFormats = map[string]string{
	"ebook": "Ebook", "e-book": "Ebook", "paperback": "Paperback", "hardcover": "Hardcover",
	"audiobook": "Audiobook", "print": "Paperback",
}

var bookUseCaseKeywords = map[string]string{
	"entertainment": "entertainment", "for fun": "entertainment", "pure entertainment": "entertainment",
	"learning": "learning", "learn a skill": "learning", "skill": "learning",
	"book club": "book_club",
}

var bookLengthKeywords = map[string]string{
	"short": "short", "quick read": "short", "quick": "short",
	"long": "long", "epic": "long",
}

var bookToneKeywords = map[string]string{
	"light": "light", "fun": "light",
	"dark": "dark", "intense": "dark",
	"thought-provoking": "thought_provoking", "thought provoking": "thought_provoking",
}

func extractBookFilters(lower string, filters map[string]string) {
	for kw, canonical := range bookGenres {
		if strings.Contains(lower, kw) {
			filters["genre"] = canonical
			break
		}
	}
	for kw, canonical := range bookFormats {
		if strings.Contains(lower, kw) {
			filters["format"] = canonical
			break
		}
	}
}

func extractBookPreferences(lower string, preferences map[string]string) {
	for kw, canonical := range bookUseCaseKeywords {
		if strings.Contains(lower, kw) {
			preferences["use_case"] = canonical
			break
		}
	}
	for kw, canonical := range bookLengthKeywords {
		if strings.Contains(lower, kw) {
			preferences["length_preference"] = canonical
			break
		}
	}
	for kw, canonical := range bookToneKeywords {
		if strings.Contains(lower, kw) {
			preferences["tone"] = canonical
			break
		}
	}
}
