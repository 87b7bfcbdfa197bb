package valueobject

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

const (
	PinMin = 1000
	PinMax = 9999
)

// Pin одноразовый четырёхзначный код подтверждения передачи вещи.
type Pin string

func (p Pin) String() string {
	return string(p)
}

// IsValid проверяет, что PIN состоит из четырёх цифр в диапазоне 1000..9999.
func (p Pin) IsValid() bool {
	if len(p) != 4 {
		return false
	}
	n, err := strconv.Atoi(string(p))
	if err != nil {
		return false
	}
	return n >= PinMin && n <= PinMax
}

// NewPin оборачивает строку в Pin с проверкой формата.
func NewPin(raw string) (Pin, error) {
	p := Pin(raw)
	if !p.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "PIN должен состоять из 4 цифр")
	}
	return p, nil
}

// PinGenerator выпускает новые PIN-коды.
type PinGenerator interface {
	Generate() (Pin, error)
}

// RandomPinGenerator равномерно выбирает PIN из [PinMin, PinMax] через crypto/rand.
type RandomPinGenerator struct{}

func (RandomPinGenerator) Generate() (Pin, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(PinMax-PinMin+1))
	if err != nil {
		return "", fmt.Errorf("pin: не удалось сгенерировать PIN: %w", err)
	}
	return Pin(strconv.FormatInt(n.Int64()+PinMin, 10)), nil
}
