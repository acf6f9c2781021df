package main

// General API documentation for swaggo. Regenerate internal/httpapi/docs with
// `swag init -g cmd/ollamactl/docs.go -d ./,./internal/httpapi -o internal/httpapi/docs`.
//
// @title           ollamactl gateway API
// @version         1.0
// @description     HTTP gateway in front of a local Ollama server.
//
// @contact.name   ollamactl maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
