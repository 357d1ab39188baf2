package middleware

import (
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DecompressRequest unwraps gzip and deflate request bodies before handlers see them.
func DecompressRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		encoding := contentEncoding(c)
		if encoding == "" || encoding == "identity" {
			c.Next()
			return
		}

		var (
			reader io.ReadCloser
			err    error
		)
		switch encoding {
		case "gzip", "x-gzip":
			reader, err = gzip.NewReader(c.Request.Body)
		case "deflate":
			reader, err = zlib.NewReader(c.Request.Body)
		default:
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported_content_encoding"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_content_encoding"})
			return
		}

		original := c.Request.Body
		defer original.Close()
		defer reader.Close()

		c.Request.Body = reader
		c.Request.Header.Del("Content-Encoding")
		c.Request.ContentLength = -1
		c.Next()
	}
}

// RequireIdentityEncoding rejects encoded bodies with 415.
// Signed webhooks go through it so the signature covers the exact bytes on the wire.
func RequireIdentityEncoding() gin.HandlerFunc {
	return func(c *gin.Context) {
		if encoding := contentEncoding(c); encoding != "" && encoding != "identity" {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported_content_encoding"})
			return
		}
		c.Next()
	}
}

func contentEncoding(c *gin.Context) string {
	return strings.ToLower(strings.TrimSpace(c.GetHeader("Content-Encoding")))
}
