package core

import (
	"strconv"
	"strings"
	"time"
)

var numberWords = map[string]float64{
	"un": 1, "una": 1, "uno": 1, "one": 1, "a": 1, "an": 1,
	"dos": 2, "two": 2,
	"tres": 3, "three": 3,
	"cuatro": 4, "four": 4,
	"cinco": 5, "five": 5,
	"seis": 6, "six": 6,
	"siete": 7, "seven": 7,
	"ocho": 8, "eight": 8,
	"nueve": 9, "nine": 9,
	"diez": 10, "ten": 10,
	"media": 0.5, "medio": 0.5, "half": 0.5,
}

var unitDurations = map[string]time.Duration{
	"segundo": time.Second, "segundos": time.Second,
	"second": time.Second, "seconds": time.Second, "sec": time.Second, "secs": time.Second,
	"minuto": time.Minute, "minutos": time.Minute,
	"minute": time.Minute, "minutes": time.Minute, "min": time.Minute, "mins": time.Minute,
	"hora": time.Hour, "horas": time.Hour,
	"hour": time.Hour, "hours": time.Hour,
	"dia": 24 * time.Hour, "dias": 24 * time.Hour,
	"day": 24 * time.Hour, "days": 24 * time.Hour,
	"semana": 7 * 24 * time.Hour, "semanas": 7 * 24 * time.Hour,
	"week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"mes": 30 * 24 * time.Hour, "meses": 30 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour, "months": 30 * 24 * time.Hour,
}

// WordsToDuration scans free text for quantity/unit pairs, in Spanish or
// English, and sums them into a duration. "media hora" and
// "1 day 30 minutes" both work; a unit with no preceding quantity counts
// as one. Returns zero when no unit appears, which callers read as an
// indefinite penalty.
func WordsToDuration(text string) time.Duration {
	words := strings.Fields(strings.ToLower(RemoveAccents(text)))
	var total time.Duration
	pending := -1.0
	for _, word := range words {
		word = strings.Trim(word, ".,;:!?¡¿")
		if n, err := strconv.ParseFloat(word, 64); err == nil {
			pending = n
			continue
		}
		if n, ok := numberWords[word]; ok {
			pending = n
			continue
		}
		if unit, ok := unitDurations[word]; ok {
			quantity := pending
			if quantity < 0 {
				quantity = 1
			}
			total += time.Duration(quantity * float64(unit))
			pending = -1
		}
	}
	return total
}

// SumNumbersInText adds up every numeric token in the text, word numbers
// included.
func SumNumbersInText(text string) float64 {
	words := strings.Fields(strings.ToLower(RemoveAccents(text)))
	var total float64
	for _, word := range words {
		word = strings.Trim(word, ".,;:!?¡¿")
		if n, err := strconv.ParseFloat(word, 64); err == nil {
			total += n
			continue
		}
		if n, ok := numberWords[word]; ok {
			total += n
		}
	}
	return total
}
