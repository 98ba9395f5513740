package utils

import (
	"math/rand"
	"time"

	"github.com/sooryaah/imat-lms/models"
	"gorm.io/gorm"
)

const referenceLength = 10
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateUniquePaymentReference returns a short human-readable reference
// for a payment record, retrying until it does not collide.
func GenerateUniquePaymentReference(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, referenceLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		code := string(b)

		var payment models.Payment
		err := tx.Where("reference = ?", code).First(&payment).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return code, nil
			}
			return "", err
		}
	}
}
