package catalog

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer limpia nombres de categoría al cargarlos.
type Normalizer interface {
	Normalize(name string) string
}

// LegacyReplacements las tres sustituciones históricas de los datos de origen.
func LegacyReplacements() map[string]string {
	return map[string]string{
		"Electrónica":  "Electronica",
		"Informática":  "Informatica",
		"Alimentación": "Alimentacion",
	}
}

// ReplacementNormalizer aplica sustituciones literales; las claves más largas primero.
type ReplacementNormalizer struct {
	pairs []string
}

// NewReplacementNormalizer construye el normalizador con el mapa dado.
func NewReplacementNormalizer(m map[string]string) *ReplacementNormalizer {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return &ReplacementNormalizer{pairs: pairs}
}

func (n *ReplacementNormalizer) Normalize(name string) string {
	name = strings.TrimSpace(name)
	if len(n.pairs) == 0 {
		return name
	}
	return strings.NewReplacer(n.pairs...).Replace(name)
}

// AccentStripper quita todas las marcas diacríticas (NFD + eliminar Mn + NFC).
type AccentStripper struct{}

func (AccentStripper) Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		return strings.TrimSpace(name)
	}
	return out
}

// NopNormalizer solo recorta espacios.
type NopNormalizer struct{}

func (NopNormalizer) Normalize(name string) string { return strings.TrimSpace(name) }

// NewNormalizer elige la estrategia: legacy (sustituciones, por defecto las tres históricas),
// accents o none.
func NewNormalizer(mode string, replacements map[string]string) (Normalizer, error) {
	switch mode {
	case "", "legacy":
		if len(replacements) == 0 {
			replacements = LegacyReplacements()
		}
		return NewReplacementNormalizer(replacements), nil
	case "accents":
		return AccentStripper{}, nil
	case "none":
		return NopNormalizer{}, nil
	}
	return nil, fmt.Errorf("normalización de categorías desconocida: %s", mode)
}
