package pricing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length in pixels of rendered payment codes.
const DefaultQRSize = 256

// BuildUPILink returns a upi://pay deep link for amount in INR. Parameters
// keep the pa, pn, am, cu order payment apps expect.
func BuildUPILink(payeeVPA, payeeName string, amount float64) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=INR",
		queryEscape(payeeVPA),
		queryEscape(payeeName),
		strconv.FormatFloat(Round2(amount), 'f', 2, 64),
	)
}

// queryEscape escapes a query value, spaces as %20 and '@' left readable.
func queryEscape(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	return strings.ReplaceAll(e, "%40", "@")
}

// RenderQR encodes content as a PNG QR code.
func RenderQR(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render payment QR: %w", err)
	}
	return png, nil
}
