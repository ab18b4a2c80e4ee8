// Package server exposes a dispense.Dispenser over HTTP.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kataras/iris/v12"
	"github.com/xor-shift/xoshiro/common"
	"github.com/xor-shift/xoshiro/dispense"
)

const DefaultMaxValues = 4096

type Session struct {
	Session uint   `json:"session"`
	Jump    uint64 `json:"jump"`
	Long    uint64 `json:"long"`
}

type handlers struct {
	app       *iris.Application
	dispenser *dispense.Dispenser
	maxValues int
}

// NewApp registers the dispenser endpoints on a new iris application.
func NewApp(d *dispense.Dispenser, maxValues int) *iris.Application {
	if maxValues <= 0 {
		maxValues = DefaultMaxValues
	}

	h := &handlers{
		app:       iris.New(),
		dispenser: d,
		maxValues: maxValues,
	}

	h.app.Post("/streams", h.streams)
	h.app.Get("/values", h.values)
	h.app.Post("/verify", h.verify)
	h.app.Post("/reseed", h.reseed)
	h.app.Get("/session", h.session)

	return h.app
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dispense.ErrMismatch), errors.Is(err, dispense.ErrIndexTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dispense.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func (h *handlers) fail(ctx iris.Context, prefix string, err error) {
	ctx.StatusCode(statusFor(err))
	_, _ = ctx.Text("%s %s", prefix, err)
}

func (h *handlers) streams(ctx iris.Context) {
	body, err := ctx.GetBody()
	if err != nil {
		h.app.Logger().Printf("/streams error (body): %s", err)
		h.fail(ctx, "+STREAMS_FAIL", err)
		return
	}

	request, err := common.ParseStreamRequest(body)
	if err != nil {
		h.fail(ctx, "+STREAMS_FAIL", err)
		return
	}

	level, _ := common.ParseJumpLevel(request.Level)

	streams, err := h.dispenser.AllocateN(level, request.Count)
	if err != nil {
		h.fail(ctx, "+STREAMS_FAIL", err)
		return
	}

	h.app.Logger().Infof("dispensed %d %s stream(s) to %s", len(streams), level, ctx.RemoteAddr())

	_, _ = ctx.JSON(streams)
}

func (h *handlers) values(ctx iris.Context) {
	state := ctx.URLParamDefault("state", "")
	n := ctx.URLParamIntDefault("n", 1)

	if n < 1 || n > h.maxValues {
		h.fail(ctx, "+VALUES_FAIL", fmt.Errorf("n must be between 1 and %d", h.maxValues))
		return
	}

	values, err := h.dispenser.Values(state, n)
	if err != nil {
		h.fail(ctx, "+VALUES_FAIL", err)
		return
	}

	hex := make([]string, len(values))
	for i, v := range values {
		hex[i] = fmt.Sprintf("%016x", v)
	}

	_, _ = ctx.JSON(hex)
}

func (h *handlers) verify(ctx iris.Context) {
	body, err := ctx.GetBody()
	if err != nil {
		h.fail(ctx, "+VERIFY_FAIL", err)
		return
	}

	request, err := common.ParseVerifyRequest(body)
	if err != nil {
		h.fail(ctx, "+VERIFY_FAIL", err)
		return
	}

	if err = h.dispenser.VerifyText(request.State, request.Index, request.Value); err != nil {
		h.app.Logger().Warnf("verification failed for %s: %s", ctx.RemoteAddr(), err)
		h.fail(ctx, "+VERIFY_FAIL", err)
		return
	}

	_, _ = ctx.Text("+VERIFY_OK")
}

func (h *handlers) reseed(ctx iris.Context) {
	body, err := ctx.GetBody()
	if err != nil {
		h.fail(ctx, "+RESEED_FAIL", err)
		return
	}

	request, err := common.ParseReseedRequest(body)
	if err != nil {
		h.fail(ctx, "+RESEED_FAIL", err)
		return
	}

	var seed [4]uint64
	if request.Seed == "" {
		seed, err = common.RandomSeed()
	} else {
		seed, err = common.ParseSeed(request.Seed)
	}

	if err != nil {
		h.fail(ctx, "+RESEED_FAIL", err)
		return
	}

	session := h.dispenser.Reseed(seed)
	h.app.Logger().Infof("reseed from %s started session %d", ctx.RemoteAddr(), session)

	_, _ = ctx.Text("+RESEED_OK %d", session)
}

func (h *handlers) session(ctx iris.Context) {
	jump, long := h.dispenser.Counts()

	_, _ = ctx.JSON(Session{
		Session: h.dispenser.SessionID(),
		Jump:    jump,
		Long:    long,
	})
}
