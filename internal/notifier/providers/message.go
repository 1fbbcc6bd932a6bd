package providers

// Message is a finished report ready for delivery
type Message struct {
	Subject   string
	HTMLBody  string
	PlainBody string
	// FileName names the HTML attachment for providers that send files
	FileName string
}
