// cmd/mavekit/main.go
package main

import (
	"mavekit/internal/app"
	"mavekit/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
