package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-05-01T10:30:00"`, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
		{`"2024-05-01T10:30:00.123456"`, time.Date(2024, 5, 1, 10, 30, 0, 123456000, time.UTC)},
		{`"2024-05-01"`, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{`"2024-05-01T10:30:00+07:00"`, time.Date(2024, 5, 1, 3, 30, 0, 0, time.UTC)},
		{`null`, time.Time{}},
		{`""`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got Time
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.True(t, tt.want.Equal(got.Time), "got %v", got.Time)
		})
	}

	var bad Time
	assert.Error(t, json.Unmarshal([]byte(`"01/05/2024"`), &bad))
}

func TestTimeMarshal(t *testing.T) {
	raw, err := json.Marshal(struct {
		At Time `json:"at"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":null}`, string(raw))

	raw, err = json.Marshal(NewTime(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-01T10:00:00Z"`, string(raw))
}

func TestOrderStatus(t *testing.T) {
	st, ok := ParseOrderStatus(" shipped ")
	assert.True(t, ok)
	assert.Equal(t, OrderShipped, st)
	assert.Equal(t, "Đang giao", st.Text())

	_, ok = ParseOrderStatus("lost")
	assert.False(t, ok)
	assert.Len(t, OrderStatuses(), 5)
}

func TestPaymentEnums(t *testing.T) {
	assert.Equal(t, PaymentCOD, NormalizePaymentMethod(""))
	assert.Equal(t, PaymentVNPay, NormalizePaymentMethod("vnpay"))
	assert.Equal(t, "Chưa có thông tin", PaymentMethod("X").Text())

	assert.True(t, PaymentPaid.Settled())
	assert.True(t, PaymentAwaitingDelivery.Settled())
	assert.False(t, PaymentPending.Settled())
}

func TestDiscountActive(t *testing.T) {
	from := NewTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	to := NewTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	d := Discount{Code: "TET2024", ValidFrom: &from, ValidTo: &to}

	assert.True(t, d.Active(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, d.Active(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, d.Active(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)))
	assert.True(t, (&Discount{}).Active(time.Now()))
}

func TestOrderTotals(t *testing.T) {
	o := Order{OrderDetails: []OrderItem{{Quantity: 2, Price: 100}, {Quantity: 1, Price: 50}}}
	assert.Equal(t, 250.0, o.Subtotal())
}

func TestUserRoles(t *testing.T) {
	u := User{Roles: []string{RoleCustomer, RoleAdmin}}
	assert.True(t, u.IsAdmin())
	assert.True(t, u.HasRole(RoleCustomer))
	assert.False(t, (&User{}).IsAdmin())
}
