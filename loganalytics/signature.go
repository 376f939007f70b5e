package loganalytics

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
)

var base64Pattern = regexp.MustCompile(`^[a-zA-Z0-9+/]*={0,3}$`)

// IsBase64String reports whether s looks like standard Base64 text. Surrounding whitespace is ignored.
func IsBase64String(s string) bool {
	s = strings.TrimSpace(s)
	return len(s)%4 == 0 && base64Pattern.MatchString(s)
}

// StringToSign builds the canonical string signed for a Data Collector API request.
// contentLength is the UTF-8 byte length of the request body.
func StringToSign(contentLength int, date string) string {
	return strings.Join([]string{
		"POST",
		strconv.Itoa(contentLength),
		contentTypeJSON,
		xMsDateHeader + ":" + date,
		resourcePath,
	}, "\n")
}

// BuildSignature returns the Authorization header value for a request carrying
// contentLength bytes of JSON and dated with date.
func BuildSignature(workspaceID string, key []byte, contentLength int, date string) string {
	return "SharedKey " + workspaceID + ":" + sign(key, StringToSign(contentLength, date))
}

func sign(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
