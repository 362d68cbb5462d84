package mutation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"marketplace/storefront/internal/client"
	"marketplace/storefront/internal/config"
	"marketplace/storefront/internal/domain"
	"marketplace/storefront/internal/normalize"
)

// Limits are the client-side bounds a submission must respect
type Limits struct {
	MaxPrice       float64
	PhoneDigits    int
	MinDescription int
}

func LimitsFrom(cfg config.CatalogConfig) Limits {
	return Limits{
		MaxPrice:       cfg.MaxPrice,
		PhoneDigits:    cfg.PhoneDigits,
		MinDescription: cfg.MinDescription,
	}
}

// Validate checks a form before anything is sent and returns one message
// per problem. An empty result means the form may be submitted.
func Validate(kind domain.ItemKind, form *client.Form, limits Limits) []string {
	var errs []string

	if formValue(form, normalize.NameAliases) == "" {
		errs = append(errs, "Name is required")
	}
	if formValue(form, normalize.CategoryAliases) == "" {
		errs = append(errs, "Category is required")
	}

	description := formValue(form, normalize.DescriptionAliases)
	if description == "" {
		errs = append(errs, "Description is required")
	} else if kind == domain.ItemKindService && utf8.RuneCountInString(description) < limits.MinDescription {
		errs = append(errs, fmt.Sprintf("Description must be at least %d characters", limits.MinDescription))
	}

	raw := formValue(form, normalize.PriceAliases)
	price, err := strconv.ParseFloat(raw, 64)
	switch {
	case raw == "" || err != nil || math.IsNaN(price) || math.IsInf(price, 0):
		errs = append(errs, "Price must be a number")
	case price < 0:
		errs = append(errs, "Price cannot be negative")
	case limits.MaxPrice > 0 && price > limits.MaxPrice:
		errs = append(errs, fmt.Sprintf("Price cannot exceed %s", strconv.FormatFloat(limits.MaxPrice, 'f', -1, 64)))
	}

	if kind == domain.ItemKindService {
		if digits := PhoneDigits(formValue(form, normalize.PhoneAliases)); len(digits) != limits.PhoneDigits {
			errs = append(errs, fmt.Sprintf("Phone must have exactly %d digits", limits.PhoneDigits))
		}
	}

	return errs
}

// PhoneDigits strips everything but digits
func PhoneDigits(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}

// formValue returns the first non-blank value under any alias
func formValue(form *client.Form, aliases []string) string {
	for _, alias := range aliases {
		if v := strings.TrimSpace(form.Get(alias)); v != "" {
			return v
		}
	}
	return ""
}
