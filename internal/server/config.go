package server

type Config struct {
	Port        string
	CorsOrigins []string
}
