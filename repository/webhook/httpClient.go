package webhookrepo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prabin319/BookByte-sub000/model"
	"github.com/prabin319/BookByte-sub000/util/httpx"
)

type httpDispatcher struct {
	url    string
	client *http.Client
}

func NewHTTP(url string) Dispatcher {
	return &httpDispatcher{url: url, client: httpx.Client()}
}

func (d *httpDispatcher) Deliver(n model.Notification) error {
	body := map[string]any{
		"user_id": n.UserID,
		"loan_id": n.LoanID,
		"type":    n.Type,
		"title":   n.Title,
		"message": n.Message,
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, d.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook delivery failed: %s", resp.Status)
	}
	return nil
}
