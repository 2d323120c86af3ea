package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func codeRows(codes ...string) []Row {
	rows := make([]Row, len(codes))
	for i, c := range codes {
		rows[i] = NewRow(map[string]any{"code": c})
	}
	return rows
}

func TestNextCode(t *testing.T) {
	in := CodeInput{Owner: testOwner, Row: NewRow(map[string]any{"category": "IT"})}

	tests := []struct {
		name string
		rows []Row
		want string
	}{
		{
			name: "empty collection starts at one",
			rows: nil,
			want: "Acme/EEE/IT/0001",
		},
		{
			name: "increments the largest suffix",
			rows: codeRows("Acme/EEE/IT/0001", "Acme/EEE/IT/0002", "Acme/EEE/IT/0003"),
			want: "Acme/EEE/IT/0004",
		},
		{
			name: "gaps are not filled",
			rows: codeRows("Acme/EEE/IT/0001", "Acme/EEE/IT/0005"),
			want: "Acme/EEE/IT/0006",
		},
		{
			name: "other prefixes are ignored",
			rows: codeRows("Acme/EEE/CE/0009", "Acme/EEE/ITX/0007", "Beta/EEE/IT/0004"),
			want: "Acme/EEE/IT/0001",
		},
		{
			name: "non numeric suffixes are ignored",
			rows: codeRows("Acme/EEE/IT/00A1", "Acme/EEE/IT/", "Acme/EEE/IT/0002"),
			want: "Acme/EEE/IT/0003",
		},
		{
			name: "suffix wider than the padding",
			rows: codeRows("Acme/EEE/IT/12345"),
			want: "Acme/EEE/IT/12346",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextCode(tt.rows, assetsCode, in, "")
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextCode_ExcludesOwnRow(t *testing.T) {
	rows := codeRows("Acme/EEE/IT/0001", "Acme/EEE/IT/0002")
	in := CodeInput{Owner: testOwner, Row: NewRow(map[string]any{"category": "IT"})}

	got, ok := NextCode(rows, assetsCode, in, rows[1].Key)

	assert.True(t, ok)
	assert.Equal(t, "Acme/EEE/IT/0002", got)
}

func TestCodeScheme_Prefix(t *testing.T) {
	tests := []struct {
		name   string
		scheme CodeScheme
		in     CodeInput
		want   string
		wantOK bool
	}{
		{
			name:   "owner truncated to width",
			scheme: assetsCode,
			in:     CodeInput{Owner: testOwner, Row: NewRow(map[string]any{"category": "CE"})},
			want:   "Acme/EEE/CE/",
			wantOK: true,
		},
		{
			name:   "short owner kept whole",
			scheme: assetsCode,
			in:     CodeInput{Owner: Owner{Name: "HP"}, Row: NewRow(map[string]any{"category": "IT"})},
			want:   "HP/EEE/IT/",
			wantOK: true,
		},
		{
			name:   "missing field value",
			scheme: assetsCode,
			in:     CodeInput{Owner: testOwner, Row: NewRow(nil)},
			wantOK: false,
		},
		{
			name:   "missing owner name",
			scheme: assetsCode,
			in:     CodeInput{Row: NewRow(map[string]any{"category": "IT"})},
			wantOK: false,
		},
		{
			name: "period segment",
			scheme: CodeScheme{Field: "code", Parts: []CodePart{
				{Source: PartLiteral, Literal: "SA"},
				{Source: PartPeriod},
			}},
			in:     CodeInput{Owner: testOwner},
			want:   "SA/2024-25/",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.scheme.Prefix(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
