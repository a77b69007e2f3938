package domain

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		in   string
		want StatusFilter
	}{
		{"active", StatusEnabled},
		{"true", StatusEnabled},
		{"1", StatusEnabled},
		{"inactive", StatusDisabled},
		{"false", StatusDisabled},
		{"0", StatusDisabled},
		{"", StatusAll},
		{"archived", StatusAll},
	}
	for _, tt := range tests {
		if got := ParseStatusFilter(tt.in); got != tt.want {
			t.Errorf("ParseStatusFilter(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestBaseEntity_State(t *testing.T) {
	now := time.Now().UTC()
	b := BaseEntity{}
	if b.State() != StateActive {
		t.Errorf("zero entity state = %q; want active", b.State())
	}

	b.IsDeleted = true
	b.DeletedAtUTC = &now
	if b.State() != StateTrashed {
		t.Errorf("deleted entity state = %q; want trashed", b.State())
	}
}

func TestBaseEntity_JSONNames(t *testing.T) {
	raw, err := json.Marshal(BaseEntity{RowVersion: "v1", Status: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, key := range []string{`"id"`, `"createdAtUtc"`, `"updatedAtUtc":null`, `"isDeleted":false`, `"deletedAtUtc":null`, `"rowVersion":"v1"`, `"status":true`} {
		if !strings.Contains(body, key) {
			t.Errorf("json %s missing %s", body, key)
		}
	}
}

func TestNewRowVersion_Unique(t *testing.T) {
	a, b := NewRowVersion(), NewRowVersion()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty versions, got %q and %q", a, b)
	}
}

func TestDefaultSeoMetadata(t *testing.T) {
	seo := DefaultSeoMetadata()
	if !seo.AutoGenerateSnippet || !seo.AutoGenerateHeadTags || !seo.IncludeInSitemap {
		t.Errorf("expected all flags true, got %+v", seo)
	}
}

func TestPrincipal(t *testing.T) {
	ctx := context.Background()
	if _, ok := PrincipalFrom(ctx); ok {
		t.Fatal("expected no principal in empty context")
	}

	ctx = WithPrincipal(ctx, Principal{Subject: "u1", TenantID: "acme", Roles: []string{RoleViewer}})
	p, ok := PrincipalFrom(ctx)
	if !ok || p.TenantID != "acme" {
		t.Fatalf("PrincipalFrom = %+v, %v", p, ok)
	}
	if p.CanWrite() {
		t.Error("viewer should not be able to write")
	}

	editor := Principal{TenantID: "acme", Roles: []string{RoleEditor}}
	if !editor.CanWrite() {
		t.Error("editor should be able to write")
	}

	if _, ok := PrincipalFrom(WithPrincipal(context.Background(), Principal{Subject: "no-tenant"})); ok {
		t.Error("principal without tenant should be rejected")
	}
}
