package draw

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout формат даты тиража
	DateLayout = "2006-01-02"

	NumbersCount = 5
	MinNumber    = 1
	MaxNumber    = 90

	idSeparator = "/"
)

// ID естественный ключ результата тиража
type ID struct {
	Name string `json:"draw_name"`
	Date string `json:"draw_date"`
}

func (id ID) String() string {
	return id.Name + idSeparator + id.Date
}

// ParseID разбирает ключ вида "name/2024-01-01"
func ParseID(s string) (ID, error) {
	i := strings.LastIndex(s, idSeparator)
	if i <= 0 || i == len(s)-1 {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	id := ID{Name: s[:i], Date: s[i+1:]}
	if _, err := time.Parse(DateLayout, id.Date); err != nil {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// DrawResult результат одного тиража
type DrawResult struct {
	DrawName       string    `json:"draw_name"`
	DrawDate       string    `json:"draw_date"`
	WinningNumbers []int     `json:"winning_numbers"`
	MachineNumbers []int     `json:"machine_numbers,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (d *DrawResult) ID() ID {
	return ID{Name: d.DrawName, Date: d.DrawDate}
}

func (d *DrawResult) HasMachineNumbers() bool {
	return len(d.MachineNumbers) > 0
}

// Clone возвращает глубокую копию, чтобы снимок в очереди не зависел от вызывающего кода
func (d *DrawResult) Clone() *DrawResult {
	if d == nil {
		return nil
	}
	c := *d
	c.WinningNumbers = append([]int(nil), d.WinningNumbers...)
	if d.MachineNumbers != nil {
		c.MachineNumbers = append([]int(nil), d.MachineNumbers...)
	}
	return &c
}

// Filter условия выборки результатов
type Filter struct {
	DrawName     string
	DateFrom     string
	DateTo       string
	UpdatedAfter time.Time
	Limit        int
}

// OrderBy порядок выборки
type OrderBy struct {
	Field string
	Desc  bool
}

const (
	OrderUpdatedAt = "updated_at"
	OrderDrawDate  = "draw_date"
)
