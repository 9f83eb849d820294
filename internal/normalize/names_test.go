package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "brahim diaz", Fold("Brahim Díaz"))
	assert.Equal(t, "munir el kajoui", Fold("Munir El Kajoui"))
	assert.Equal(t, "", Fold(""))
}

func TestNameKey(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Youssef En-Nesyri", "youssef en nesyri"},
		{"  Brahim  Díaz ", "Brahim Diaz"},
		{"Abde Ezzalzouli", "Abde Ezzalzouli"},
		{"N. Mazraoui", "n mazraoui"},
	}
	for _, tt := range tests {
		t.Run(tt.a, func(t *testing.T) {
			assert.Equal(t, NameKey(tt.a), NameKey(tt.b))
		})
	}
	assert.NotEqual(t, NameKey("Amine Adli"), NameKey("Amine Harit"))
}
