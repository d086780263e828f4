package draw

import (
	"fmt"
	"strings"
	"time"
)

// Validate проверяет инварианты результата тиража
func Validate(d *DrawResult) error {
	if d == nil {
		return &ValidationError{Field: "draw", Reason: "is nil"}
	}

	if strings.TrimSpace(d.DrawName) == "" {
		return &ValidationError{Field: "draw_name", Reason: "must not be empty"}
	}

	if _, err := time.Parse(DateLayout, d.DrawDate); err != nil {
		return &ValidationError{Field: "draw_date", Reason: fmt.Sprintf("must match %s", DateLayout)}
	}

	if err := validateNumbers("winning_numbers", d.WinningNumbers); err != nil {
		return err
	}

	if len(d.MachineNumbers) == 0 {
		return nil
	}

	return validateNumbers("machine_numbers", d.MachineNumbers)
}

func validateNumbers(field string, numbers []int) error {
	if len(numbers) != NumbersCount {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("must contain exactly %d numbers, got %d", NumbersCount, len(numbers)),
		}
	}

	seen := make(map[int]struct{}, len(numbers))
	for _, n := range numbers {
		if n < MinNumber || n > MaxNumber {
			return &ValidationError{
				Field:  field,
				Reason: fmt.Sprintf("number %d out of range %d-%d", n, MinNumber, MaxNumber),
			}
		}
		if _, dup := seen[n]; dup {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("duplicate number %d", n)}
		}
		seen[n] = struct{}{}
	}

	return nil
}
