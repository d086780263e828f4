package draw

import (
	"time"

	"drawsync/internal/domain/draw"
)

type listInput struct {
	Name  string `query:"name" doc:"Название тиража"`
	From  string `query:"from" example:"2024-01-01" doc:"Дата тиража с (включительно)"`
	To    string `query:"to" example:"2024-12-31" doc:"Дата тиража по (включительно)"`
	Limit int    `query:"limit" minimum:"0" maximum:"1000" default:"100"`
}

type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Status string         `json:"status"`
	Draws  []DrawResponse `json:"draws"`
}

type idInput struct {
	Name string `path:"name" example:"Réveil" doc:"Название тиража"`
	Date string `path:"date" example:"2024-01-01" doc:"Дата тиража"`
}

type createInput struct {
	Body createRequest
}

type updateInput struct {
	Name string `path:"name" example:"Réveil" doc:"Название тиража"`
	Date string `path:"date" example:"2024-01-01" doc:"Дата тиража"`
	Body numbersRequest
}

type createRequest struct {
	DrawName string `json:"draw_name" minLength:"1" doc:"Название тиража"`
	DrawDate string `json:"draw_date" example:"2024-01-01" doc:"Дата тиража в формате YYYY-MM-DD"`
	numbersRequest
}

type numbersRequest struct {
	WinningNumbers []int `json:"winning_numbers" minItems:"5" maxItems:"5" doc:"Выигрышные номера, 5 чисел от 1 до 90"`
	MachineNumbers []int `json:"machine_numbers,omitempty" doc:"Машинные номера, 0 или 5 чисел от 1 до 90"`
}

type drawOutput struct {
	Body drawResponse
}

type drawResponse struct {
	Status string        `json:"status"`
	Draw   *DrawResponse `json:"draw,omitempty"`
	OpID   string        `json:"operation_id,omitempty" doc:"ID отложенной операции"`
}

type DrawResponse struct {
	DrawName       string    `json:"draw_name"`
	DrawDate       string    `json:"draw_date"`
	WinningNumbers []int     `json:"winning_numbers"`
	MachineNumbers []int     `json:"machine_numbers,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(d *draw.DrawResult) *DrawResponse {
	if d == nil {
		return nil
	}
	return &DrawResponse{
		DrawName:       d.DrawName,
		DrawDate:       d.DrawDate,
		WinningNumbers: d.WinningNumbers,
		MachineNumbers: d.MachineNumbers,
		UpdatedAt:      d.UpdatedAt,
	}
}
