// Package slug deriva identificadores URL-safe a partir del nombre de un produto.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile("[^a-z0-9]+")

// usado cuando el nombre no tiene ningún carácter alfanumérico
const fallback = "produto"

// Checker indica si un slug ya está en uso dentro del scope (storeID nil = sin loja).
type Checker interface {
	SlugExists(ctx context.Context, slug string, storeID *string, excludeID string) (bool, error)
}

// Slugify pasa a minúsculas, reemplaza los tramos no alfanuméricos por "-" y recorta los extremos
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type Generator struct {
	checker Checker
}

func NewGenerator(checker Checker) *Generator {
	return &Generator{checker: checker}
}

// Generate retorna el primer slug libre en el scope: base, base-1, base-2...
func (g *Generator) Generate(ctx context.Context, name string, storeID *string, excludeID string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = fallback
	}
	candidate := base

	for counter := 1; ; counter++ {
		taken, err := g.checker.SlugExists(ctx, candidate, storeID, excludeID)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}
