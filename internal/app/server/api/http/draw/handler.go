package draw

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"drawsync/internal/app/server/api/http/httperr"
	"drawsync/internal/domain/draw"
	"drawsync/internal/domain/sync"
)

// Service чтение локальной реплики и запись через очередь отложенных операций
type Service interface {
	Get(ctx context.Context, id draw.ID) (*draw.DrawResult, error)
	List(ctx context.Context, filter *draw.Filter) ([]*draw.DrawResult, error)
	Create(ctx context.Context, d *draw.DrawResult) (*sync.Operation, error)
	Update(ctx context.Context, d *draw.DrawResult) (*sync.Operation, error)
	Delete(ctx context.Context, id draw.ID) (*sync.Operation, error)
}

type Handler struct {
	service    Service
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service Service, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	draws, err := h.service.List(ctx, &draw.Filter{
		DrawName: input.Name,
		DateFrom: input.From,
		DateTo:   input.To,
		Limit:    input.Limit,
	})
	if err != nil {
		return nil, httperr.From(err)
	}

	out := &listOutput{Body: listResponse{Status: "Ok", Draws: make([]DrawResponse, 0, len(draws))}}
	for _, d := range draws {
		out.Body.Draws = append(out.Body.Draws, *toResponse(d))
	}

	return out, nil
}

func (h *Handler) find(ctx context.Context, input *idInput) (*drawOutput, error) {
	d, err := h.service.Get(ctx, draw.ID{Name: input.Name, Date: input.Date})
	if err != nil {
		return nil, httperr.From(err)
	}

	return &drawOutput{Body: drawResponse{Status: "Ok", Draw: toResponse(d)}}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*drawOutput, error) {
	d := &draw.DrawResult{
		DrawName:       input.Body.DrawName,
		DrawDate:       input.Body.DrawDate,
		WinningNumbers: input.Body.WinningNumbers,
		MachineNumbers: input.Body.MachineNumbers,
	}

	op, err := h.service.Create(ctx, d)
	if err != nil {
		return nil, httperr.From(err)
	}

	h.log.Debug("Результат тиража создан", "draw", d.ID().String(), "op_id", op.ID)
	return &drawOutput{Body: drawResponse{Status: "Ok", Draw: toResponse(op.Entity), OpID: op.ID}}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*drawOutput, error) {
	d := &draw.DrawResult{
		DrawName:       input.Name,
		DrawDate:       input.Date,
		WinningNumbers: input.Body.WinningNumbers,
		MachineNumbers: input.Body.MachineNumbers,
	}

	op, err := h.service.Update(ctx, d)
	if err != nil {
		return nil, httperr.From(err)
	}

	return &drawOutput{Body: drawResponse{Status: "Ok", Draw: toResponse(op.Entity), OpID: op.ID}}, nil
}

func (h *Handler) delete(ctx context.Context, input *idInput) (*drawOutput, error) {
	op, err := h.service.Delete(ctx, draw.ID{Name: input.Name, Date: input.Date})
	if err != nil {
		return nil, httperr.From(err)
	}

	return &drawOutput{Body: drawResponse{Status: "Ok", OpID: op.ID}}, nil
}
