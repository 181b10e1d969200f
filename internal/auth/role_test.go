package auth

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"citizen", RoleCitizen, false},
		{"user", RoleCitizen, false},
		{"  Volunteer ", RoleVolunteer, false},
		{"asha_worker", RoleASHAWorker, false},
		{"HEALTH_OFFICIAL", RoleHealthOfficial, false},
		{"admin", RoleAdmin, false},
		{"", "", true},
		{"superuser", "", true},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseRole(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoleLevelOrdering(t *testing.T) {
	order := []Role{RoleCitizen, RoleVolunteer, RoleASHAWorker, RoleHealthOfficial, RoleAdmin}
	for i := 1; i < len(order); i++ {
		if order[i].Level() <= order[i-1].Level() {
			t.Fatalf("expected %s above %s", order[i], order[i-1])
		}
	}
	if Role("intruder").Level() != 0 {
		t.Fatalf("unknown role must sit below every valid role")
	}
}

func TestRoleSetContains(t *testing.T) {
	set := RoleSet{RoleASHAWorker, RoleHealthOfficial}
	if !set.Contains(RoleASHAWorker) {
		t.Fatalf("expected membership")
	}
	if set.Contains(RoleAdmin) {
		t.Fatalf("admin bypass belongs to the authorization layer, not the set")
	}
}
