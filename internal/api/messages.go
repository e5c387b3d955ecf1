package api

import (
	"errors"
	"net/http"

	"pos-service/internal/cart"
	"pos-service/internal/models"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Codes raised by the HTTP layer itself
const (
	codeInvalidRequest = "invalid_request"
	codeImportFailed   = "import_failed"
	codeInternal       = "internal"
)

type message struct {
	te string
	en string
}

var messages = map[string]message{
	"out_of_stock":           {"ఉత్పత్తి స్టాక్‌లో లేదు", "Product is out of stock"},
	"duplicate_item":         {"ఈ వస్తువు ఇప్పటికే కార్ట్‌లో ఉంది", "Item is already in the cart"},
	"insufficient_stock":     {"తగినంత స్టాక్ లేదు", "Not enough stock"},
	"incompatible_unit":      {"ఈ యూనిట్‌కు మార్చలేము", "Cannot convert to this unit"},
	"empty_cart":             {"కార్ట్ ఖాళీగా ఉంది", "Cart is empty"},
	"product_not_found":      {"ఉత్పత్తులు కనుగొనబడలేదు", "Product not found"},
	"price_mismatch":         {"ధర తేడా కనుగొనబడింది, దయచేసి నిర్ధారించండి", "Price mismatch detected, please confirm"},
	"invalid_quantity":       {"చెల్లని పరిమాణం", "Invalid quantity"},
	"invalid_unit":           {"చెల్లని యూనిట్", "Invalid unit"},
	"invalid_product":        {"చెల్లని ఉత్పత్తి వివరాలు", "Invalid product details"},
	"bill_not_found":         {"బిల్లు కనుగొనబడలేదు", "Bill not found"},
	"sale_already_completed": {"ఈ అమ్మకం ఇప్పటికే పూర్తయింది", "Sale already completed"},
	"unauthorized":           {"దయచేసి లాగిన్ అవ్వండి", "Please log in"},
	"forbidden":              {"అనుమతి లేదు", "Permission denied"},
	"unsupported_language":   {"మద్దతు లేని భాష", "Unsupported language"},
	codeInvalidRequest:       {"చెల్లని అభ్యర్థన", "Invalid request"},
	codeImportFailed:         {"ఫైల్ దిగుమతి విఫలమైంది", "Import failed"},
	codeInternal:             {"ఏదో తప్పు జరిగింది", "Something went wrong"},
}

var statusByCode = map[string]int{
	"out_of_stock":           http.StatusConflict,
	"duplicate_item":         http.StatusConflict,
	"insufficient_stock":     http.StatusConflict,
	"incompatible_unit":      http.StatusUnprocessableEntity,
	"empty_cart":             http.StatusUnprocessableEntity,
	"product_not_found":      http.StatusNotFound,
	"price_mismatch":         http.StatusConflict,
	"invalid_quantity":       http.StatusBadRequest,
	"invalid_unit":           http.StatusBadRequest,
	"invalid_product":        http.StatusBadRequest,
	"bill_not_found":         http.StatusNotFound,
	"sale_already_completed": http.StatusConflict,
	"unauthorized":           http.StatusUnauthorized,
	"forbidden":              http.StatusForbidden,
	"unsupported_language":   http.StatusBadRequest,
}

// Localize returns the message for code in language, falling back to Telugu
func Localize(code, language string) string {
	m, ok := messages[code]
	if !ok {
		m = messages[codeInternal]
	}
	if language == models.LanguageEnglish {
		return m.en
	}
	return m.te
}

// respondError writes the error body for err, localized to the caller's language
func respondError(c *gin.Context, err error) {
	code := models.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
		util.GetLogger().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	body := gin.H{
		"error":   code,
		"message": Localize(code, language(c)),
		"details": err.Error(),
	}

	var mismatch *cart.PriceMismatchError
	if errors.As(err, &mismatch) {
		body["mismatch"] = mismatch
		body["difference"] = mismatch.Difference()
	}

	c.AbortWithStatusJSON(status, body)
}

// respondCode writes an error body for a code raised by the HTTP layer
func respondCode(c *gin.Context, status int, code string, err error) {
	body := gin.H{
		"error":   code,
		"message": Localize(code, language(c)),
	}
	if err != nil {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
