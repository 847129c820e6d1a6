package main

// @title           Todo API
// @version         1.0
// @description     To-do list API: accounts with email OTP verification, profiles with avatars and per-user tasks.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token. Browsers send the token cookie instead.

func main() {
	Execute()
}
