package models

import "testing"

func TestRoleToward(t *testing.T) {
	u := &User{ID: 7}
	if got := u.RoleToward(7); got != PartyRoleSelf {
		t.Errorf("actor buying from themselves: role = %s, want %s", got, PartyRoleSelf)
	}
	if got := u.RoleToward(8); got != PartyRoleCounterparty {
		t.Errorf("distinct parties: role = %s, want %s", got, PartyRoleCounterparty)
	}
}
