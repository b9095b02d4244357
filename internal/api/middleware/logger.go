package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is a one-line-per-request access log, the plain stdlib log
// package the rest of this repository's ambient logging uses rather than
// gin's own default writer.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Printf("%s %s %d %s", c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
