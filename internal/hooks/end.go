package hooks

func handleEnd(client *Client) error {
	_, err := client.Post("/api/decay", nil)
	return err
}
