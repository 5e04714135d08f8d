package booking

import "testing"

func TestCanTransition(t *testing.T) {
	all := []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}
	allowed := map[[2]Status]bool{
		{StatusPending, StatusApproved}:   true,
		{StatusPending, StatusRejected}:   true,
		{StatusPending, StatusCancelled}:  true,
		{StatusApproved, StatusCancelled}: true,
		{StatusApproved, StatusCompleted}: true,
	}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	all := []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}
	for _, from := range all {
		if !from.Terminal() {
			continue
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestStatusBlocking(t *testing.T) {
	cases := []struct {
		status Status
		want   bool
	}{
		{StatusPending, true},
		{StatusApproved, true},
		{StatusCompleted, true},
		{StatusRejected, false},
		{StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := tc.status.Blocking(); got != tc.want {
			t.Errorf("%s.Blocking() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestAuthorizeTransition(t *testing.T) {
	cases := []struct {
		name    string
		isAdmin bool
		isOwner bool
		from    Status
		to      Status
		wantErr error
	}{
		{"admin approves pending", true, false, StatusPending, StatusApproved, nil},
		{"admin rejects pending", true, false, StatusPending, StatusRejected, nil},
		{"admin completes approved", true, false, StatusApproved, StatusCompleted, nil},
		{"admin cannot leave terminal", true, false, StatusCancelled, StatusApproved, ErrInvalidTransition},
		{"owner cancels pending", false, true, StatusPending, StatusCancelled, nil},
		{"owner cancels approved", false, true, StatusApproved, StatusCancelled, nil},
		{"owner cannot approve", false, true, StatusPending, StatusApproved, ErrForbidden},
		{"stranger cannot cancel", false, false, StatusPending, StatusCancelled, ErrForbidden},
		// Role check runs first: a stranger asking for a nonsense edge
		// gets forbidden, not invalid transition.
		{"stranger on terminal gets forbidden", false, false, StatusCompleted, StatusApproved, ErrForbidden},
		{"owner cancelling terminal gets invalid transition", false, true, StatusCompleted, StatusCancelled, ErrInvalidTransition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AuthorizeTransition(tc.isAdmin, tc.isOwner, tc.from, tc.to); got != tc.wantErr {
				t.Fatalf("AuthorizeTransition = %v, want %v", got, tc.wantErr)
			}
		})
	}
}
