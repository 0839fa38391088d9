package main

// General API documentation for swaggo. Run `make swagger-gen` to regenerate docs.
//
// @title           shelfwatchd API
// @version         1.0
// @description     HTTP API for counting products in shelf photographs.
//
// @contact.name   shelfwatchd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
