package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/inventario-stock/internal/domain"
)

// MovementInput entrada de un movimiento, tal como llega del importador, la API o la CLI.
type MovementInput struct {
	ProductID int64  `validate:"gt=0"`
	Type      string `validate:"oneof=ENTRADA SALIDA"`
	Quantity  int    `validate:"gt=0,lte=2147483647"`
	Reason    string `validate:"max=255"`
	User      string `validate:"max=50"`
}

var validate = validator.New()

// normalize recorta los textos, pasa el tipo a mayúsculas y asigna el usuario por defecto.
func (in MovementInput) normalize(defaultUser string) MovementInput {
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	in.Reason = strings.TrimSpace(in.Reason)
	in.User = strings.TrimSpace(in.User)
	if in.User == "" {
		in.User = defaultUser
	}
	return in
}

// Validate aplica las reglas de entrada antes de cualquier I/O.
// Devuelve *domain.ValidationError con un problema por campo.
func (in MovementInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate movement: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fieldProblem(fe))
	}
	return &domain.ValidationError{Problems: problems}
}

func fieldProblem(fe validator.FieldError) string {
	switch fe.Field() {
	case "ProductID":
		return fmt.Sprintf("ID de producto inválido: %v", fe.Value())
	case "Type":
		return fmt.Sprintf("Tipo de movimiento inválido: %v", fe.Value())
	case "Quantity":
		if fe.Tag() == "lte" {
			return fmt.Sprintf("Cantidad supera el máximo permitido (%s): %v", fe.Param(), fe.Value())
		}
		return fmt.Sprintf("Cantidad debe ser mayor a 0: %v", fe.Value())
	case "Reason":
		return "El motivo supera 255 caracteres"
	case "User":
		return "El usuario supera 50 caracteres"
	}
	return fe.Error()
}
