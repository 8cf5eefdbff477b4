package server

type Config struct {
	// Host name or address to listen on. Empty means every interface.
	Host string
	// Port to listen on, in its textual form.
	Port string `validate:"required,port"`
}
