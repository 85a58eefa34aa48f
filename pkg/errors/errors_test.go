package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFor(t *testing.T) {
	cases := []struct {
		code      Code
		status    int
		retryable bool
		details   bool
	}{
		{CodeValidation, http.StatusBadRequest, false, true},
		{CodeUnauthorized, http.StatusUnauthorized, false, false},
		{CodeForbidden, http.StatusForbidden, false, false},
		{CodeNotFound, http.StatusNotFound, false, false},
		{CodeConflict, http.StatusConflict, false, true},
		{CodeStateConflict, http.StatusUnprocessableEntity, false, true},
		{CodeIdempotency, http.StatusConflict, false, true},
		{CodeRateLimit, http.StatusTooManyRequests, false, false},
		{CodeInternal, http.StatusInternalServerError, true, false},
		{CodeDependency, http.StatusServiceUnavailable, true, true},
	}

	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			meta := MetadataFor(tc.code)
			assert.Equal(t, tc.status, meta.HTTPStatus)
			assert.Equal(t, tc.retryable, meta.Retryable)
			assert.Equal(t, tc.details, meta.DetailsAllowed)
			assert.NotEmpty(t, meta.PublicMessage)
		})
	}

	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor(Code("SOMETHING_ELSE")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")

	require.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeConflict, wrapped.Code())
	assert.Contains(t, wrapped.Error(), "boom")

	bare := Wrap(CodeValidation, nil, "nothing underneath")
	assert.Nil(t, bare.Unwrap())
	assert.Equal(t, "VALIDATION_ERROR: nothing underneath", bare.Error())
}

func TestDetailsAndAs(t *testing.T) {
	base := New(CodeValidation, "bad input")
	assert.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "quantity"})
	assert.NotNil(t, base.Details())

	outer := fmt.Errorf("handler: %w", base)
	got := As(outer)
	require.NotNil(t, got)
	assert.Equal(t, CodeValidation, got.Code())
	assert.True(t, IsCode(outer, CodeValidation))
	assert.False(t, IsCode(outer, CodeNotFound))
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))
}

func TestNilErrorIsSafe(t *testing.T) {
	var e *Error
	assert.Equal(t, CodeInternal, e.Code())
	assert.Empty(t, e.Message())
	assert.Empty(t, e.Error())
	assert.Nil(t, e.WithDetails("x"))
}

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "orders_company_number_key",
		TableName:      "orders",
		Message:        "duplicate key value",
	}
	err := Wrap(CodeConflict, fmt.Errorf("insert order: %w", pgErr), "order number taken")

	d := Dump(err)
	assert.Equal(t, CodeConflict, d.Code)
	assert.Equal(t, "23505", d.PGCode)
	assert.Equal(t, "orders_company_number_key", d.PGConstraint)
	assert.Equal(t, "orders", d.PGTable)
	assert.Len(t, d.Chain, 3)

	pqErr := &pq.Error{Code: "23503", Constraint: "order_lines_order_id_fkey", Table: "order_lines"}
	d = Dump(fmt.Errorf("insert line: %w", pqErr))
	assert.Equal(t, "23503", d.PGCode)
	assert.Equal(t, "order_lines", d.PGTable)
	assert.Empty(t, d.Code)

	assert.Equal(t, ErrorDump{}, Dump(nil))
}

func TestCodeMatchingThroughChain(t *testing.T) {
	err := fmt.Errorf("service: %w", New(CodeNotFound, "order not found"))

	assert.True(t, stdErrors.Is(err, New(CodeNotFound, "")))
	assert.False(t, stdErrors.Is(err, New(CodeConflict, "")))
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(stdErrors.New("plain")))
	assert.True(t, MetadataFor(CodeNotFound).ExposeMessage)
	assert.False(t, MetadataFor(CodeDependency).ExposeMessage)
}
