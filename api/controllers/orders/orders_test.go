package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/saborhub/saborhub-backend/api/middleware"
	internalorders "github.com/saborhub/saborhub-backend/internal/orders"
	"github.com/saborhub/saborhub-backend/pkg/auth"
	"github.com/saborhub/saborhub-backend/pkg/enums"
	pkgerrors "github.com/saborhub/saborhub-backend/pkg/errors"
	"github.com/saborhub/saborhub-backend/pkg/pagination"
)

type stubOrders struct {
	internalorders.Service
	listInput     *internalorders.ListInput
	statusInput   *internalorders.UpdateStatusInput
	approved      *bool
	courierID     string
	courierStatus enums.OrderStatus
	companyID     uuid.UUID
	err           error
}

func (s *stubOrders) List(_ context.Context, companyID uuid.UUID, input internalorders.ListInput) (*pagination.Page[internalorders.OrderDTO], error) {
	s.companyID, s.listInput = companyID, &input
	if s.err != nil {
		return nil, s.err
	}
	return &pagination.Page[internalorders.OrderDTO]{
		Items:      []internalorders.OrderDTO{{ID: uuid.New(), Number: 3}},
		NextCursor: "next",
	}, nil
}

func (s *stubOrders) Get(_ context.Context, companyID, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.companyID = companyID
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: orderID, CompanyID: companyID}, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, companyID, orderID uuid.UUID, input internalorders.UpdateStatusInput) (*internalorders.OrderDTO, error) {
	s.companyID, s.statusInput = companyID, &input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: orderID, Status: input.Status}, nil
}

func (s *stubOrders) ConfirmPayment(_ context.Context, _ uuid.UUID, orderID uuid.UUID, approved bool) (*internalorders.OrderDTO, error) {
	s.approved = &approved
	return &internalorders.OrderDTO{ID: orderID}, s.err
}

func (s *stubOrders) ListForCourier(_ context.Context, companyID uuid.UUID, courierID string) ([]internalorders.OrderDTO, error) {
	s.companyID, s.courierID = companyID, courierID
	return []internalorders.OrderDTO{}, s.err
}

func (s *stubOrders) UpdateCourierStatus(_ context.Context, _ uuid.UUID, courierID string, orderID uuid.UUID, status enums.OrderStatus) (*internalorders.OrderDTO, error) {
	s.courierID, s.courierStatus = courierID, status
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{ID: orderID, Status: status}, nil
}

func staffRequest(method, target, body string, role enums.StaffRole, companyID uuid.UUID) (*http.Request, uuid.UUID) {
	userID := uuid.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithStaff(req.Context(), &auth.StaffClaims{
		UserID:    userID,
		CompanyID: &companyID,
		Role:      role,
	}))
	return req, userID
}

func router(svc internalorders.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/orders", List(svc, nil))
	r.Get("/orders/{orderId}", Detail(svc, nil))
	r.Post("/orders/{orderId}/status", UpdateStatus(svc, nil))
	r.Post("/orders/{orderId}/payment", ConfirmPayment(svc, nil))
	r.Get("/driver/orders", DriverOrders(svc, nil))
	r.Post("/driver/orders/{orderId}/status", DriverUpdateStatus(svc, nil))
	return r
}

func TestListParsesFilters(t *testing.T) {
	companyID := uuid.New()
	svc := &stubOrders{}
	req, _ := staffRequest(http.MethodGet, "/orders?status=preparing&limit=10&cursor=abc", "", enums.StaffRoleAttendant, companyID)

	resp := httptest.NewRecorder()
	router(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.companyID != companyID {
		t.Fatalf("list not scoped to the staff company")
	}
	if svc.listInput.Status == nil || *svc.listInput.Status != enums.OrderStatusPreparing {
		t.Fatalf("unexpected status filter %+v", svc.listInput.Status)
	}
	if svc.listInput.Limit != 10 || svc.listInput.Cursor != "abc" {
		t.Fatalf("unexpected paging %+v", svc.listInput)
	}

	var envelope struct {
		Data pagination.Page[internalorders.OrderDTO] `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestListRejectsBadQuery(t *testing.T) {
	for _, target := range []string{"/orders?status=lost", "/orders?limit=0", "/orders?limit=abc"} {
		req, _ := staffRequest(http.MethodGet, target, "", enums.StaffRoleAttendant, uuid.New())
		resp := httptest.NewRecorder()
		router(&stubOrders{}).ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", target, resp.Code)
		}
	}
}

func TestDetailMissingCompanyContext(t *testing.T) {
	resp := httptest.NewRecorder()
	router(&stubOrders{}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubOrders{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	req, _ := staffRequest(http.MethodGet, "/orders/"+uuid.NewString(), "", enums.StaffRoleCompanyAdmin, uuid.New())
	resp := httptest.NewRecorder()
	router(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestUpdateStatusWithCourier(t *testing.T) {
	svc := &stubOrders{}
	req, _ := staffRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/status", `{"status":"out_for_delivery","courier_id":"moto-7"}`, enums.StaffRoleAttendant, uuid.New())
	resp := httptest.NewRecorder()
	router(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.statusInput.Status != enums.OrderStatusOutForDelivery || svc.statusInput.CourierID == nil || *svc.statusInput.CourierID != "moto-7" {
		t.Fatalf("unexpected status input %+v", svc.statusInput)
	}

	svc = &stubOrders{err: pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed")}
	req, _ = staffRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/status", `{"status":"delivered"}`, enums.StaffRoleAttendant, uuid.New())
	resp = httptest.NewRecorder()
	router(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	req, _ = staffRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/status", `{"status":"teleported"}`, enums.StaffRoleAttendant, uuid.New())
	resp = httptest.NewRecorder()
	router(&stubOrders{}).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestConfirmPaymentRequiresVerdict(t *testing.T) {
	svc := &stubOrders{}
	req, _ := staffRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/payment", `{}`, enums.StaffRoleAttendant, uuid.New())
	resp := httptest.NewRecorder()
	router(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	req, _ = staffRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/payment", `{"approved":false}`, enums.StaffRoleAttendant, uuid.New())
	resp = httptest.NewRecorder()
	router(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.approved == nil || *svc.approved {
		t.Fatalf("expected refused verdict to reach the service")
	}
}

func TestDriverRoutesUseCallerAsCourier(t *testing.T) {
	svc := &stubOrders{}
	companyID := uuid.New()

	req, userID := staffRequest(http.MethodGet, "/driver/orders", "", enums.StaffRoleDriver, companyID)
	resp := httptest.NewRecorder()
	router(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.courierID != userID.String() || svc.companyID != companyID {
		t.Fatalf("expected courier %s got %s", userID, svc.courierID)
	}

	req, userID = staffRequest(http.MethodPost, "/driver/orders/"+uuid.NewString()+"/status", `{"status":"delivered"}`, enums.StaffRoleDriver, companyID)
	resp = httptest.NewRecorder()
	router(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.courierID != userID.String() || svc.courierStatus != enums.OrderStatusDelivered {
		t.Fatalf("unexpected courier update %s %s", svc.courierID, svc.courierStatus)
	}

	req, _ = staffRequest(http.MethodPost, "/driver/orders/"+uuid.NewString()+"/status", `{"status":"canceled"}`, enums.StaffRoleDriver, companyID)
	resp = httptest.NewRecorder()
	router(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
