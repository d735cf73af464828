//go:build !integration

package i18n

import (
	"testing"
)

func TestTranslator(t *testing.T) {
	// --- Arrange ---
	contentBytes := []byte("saludo: hola\nsaludo.nombre: hola %s")

	// --- Act ---
	translator, err := newTranslatorFromBytes(contentBytes)
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	// --- Assert ---
	t.Run("should translate a simple key", func(t *testing.T) {
		got := translator.T("saludo")
		want := "hola"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		got := translator.T("clave.inexistente")
		want := "clave.inexistente"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		got := translator.T("saludo.nombre", "Ana")
		want := "hola Ana"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})
}

func TestEmbeddedSpanishLocale(t *testing.T) {
	// --- Arrange / Act ---
	translator, err := NewTranslator(LocalesFS, "es")
	if err != nil {
		t.Fatalf("NewTranslator failed: %v", err)
	}

	// --- Assert ---
	keys := []string{
		"cupon.invalido", "cupon.expirado", "cupon.agotado", "cupon.plan",
		"cupon.minimo", "cupon.aplicado",
		"referido.invalido", "referido.propio", "referido.limite", "referido.aplicado",
		"error.transitorio", "error.intentos", "entrada.reemplazada",
		"pago.aprobado", "pago.rechazado", "pago.procesando",
		"compra.saldo_completo", "compra.procesando",
	}
	for _, k := range keys {
		if got := translator.T(k); got == k {
			t.Errorf("key %q has no translation", k)
		}
	}
}
