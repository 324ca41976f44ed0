package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const telegramAPIURL = "https://api.telegram.org"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiURL      string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiURL:      telegramAPIURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// OrderNotification contains order data for Telegram notification.
type OrderNotification struct {
	OrderID    string
	Items      []OrderItemNotification
	ItemCount  int
	OrderPrice int
	PayedMoney int
	MileageUse int
	UserName   string
	UserPhone  string
	Address    string
	Payment    string
	OrderType  string
	Status     string
}

// OrderItemNotification contains order line data.
type OrderItemNotification struct {
	Name     string
	Option   string
	Quantity int
	Price    int
}

// FormatPrice formats an amount in won with thousand separators.
func FormatPrice(amount int) string {
	str := fmt.Sprintf("%d", amount)
	negative := strings.HasPrefix(str, "-")
	str = strings.TrimPrefix(str, "-")

	var result strings.Builder
	if negative {
		result.WriteString("-")
	}
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + " KRW"
}

// NotifyNewOrder sends notification about new order to admin chat.
func (s *TelegramService) NotifyNewOrder(order OrderNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		name := item.Name
		if item.Option != "" {
			name += " (" + item.Option + ")"
		}
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			name,
			item.Quantity,
			FormatPrice(item.Price),
			FormatPrice(item.Price*item.Quantity),
		))
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER</b>
<b>📋 Order:</b> %s
<b>👤 Customer:</b> %s
<b>📞 Phone:</b> %s
<b>📍 Address:</b> %s
<b>📦 Items (%d):</b>
%s
<b>💰 Total:</b> %s
<b>🎟 Mileage used:</b> %d
<b>💳 Paid:</b> %s (%s)
<b>🚚 Type:</b> %s
<b>📌 Status:</b> %s
━━━━━━━━━━━━━━━━━━`,
		order.OrderID,
		order.UserName,
		order.UserPhone,
		order.Address,
		order.ItemCount,
		itemsList.String(),
		FormatPrice(order.OrderPrice),
		order.MileageUse,
		FormatPrice(order.PayedMoney),
		order.Payment,
		order.OrderType,
		order.Status,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
