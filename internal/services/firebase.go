package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	// FirebaseApp is the Firebase app instance
	FirebaseApp *firebase.App
	// MessagingClient is the Firebase Cloud Messaging client
	MessagingClient *messaging.Client
)

// InitFirebase initializes Firebase Admin SDK
func InitFirebase() error {
	ctx := context.Background()

	// Check if Firebase is configured
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountPath == "" {
		log.Println("Warning: FIREBASE_SERVICE_ACCOUNT_PATH not set. Push notifications will be disabled.")
		return nil
	}

	// Initialize Firebase app
	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing firebase app: %v", err)
	}

	// Initialize messaging client
	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting messaging client: %v", err)
	}

	FirebaseApp = app
	MessagingClient = client

	log.Println("Firebase Cloud Messaging initialized successfully")
	return nil
}

// NotificationPayload represents the notification data
type NotificationPayload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Image string                 `json:"image,omitempty"`
}

// SendNotificationToToken sends a notification to a specific FCM token
func SendNotificationToToken(ctx context.Context, token string, payload NotificationPayload) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping notification.")
		return nil
	}

	// Convert data map to string map (required by FCM)
	dataStrings := make(map[string]string)
	for key, value := range payload.Data {
		switch v := value.(type) {
		case string:
			dataStrings[key] = v
		case int, int64, uint, float64, bool:
			dataStrings[key] = fmt.Sprintf("%v", v)
		default:
			jsonData, err := json.Marshal(v)
			if err != nil {
				log.Printf("Error marshaling data for key %s: %v", key, err)
				continue
			}
			dataStrings[key] = string(jsonData)
		}
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:  dataStrings,
		Token: token,
	}

	if payload.Image != "" {
		message.Notification.ImageURL = payload.Image
	}

	response, err := MessagingClient.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending message: %v", err)
	}

	log.Printf("Successfully sent notification to token: %s, response: %s", token, response)
	return nil
}

// SendRequestOfferNotification notifies a provider of a new inbox entry
func SendRequestOfferNotification(ctx context.Context, providerToken string, requestID uint, petName, date string, earnings float64) error {
	payload := NotificationPayload{
		Title: "New service request",
		Body:  fmt.Sprintf("%s needs you on %s, earn $%.0f", petName, date, earnings),
		Data: map[string]interface{}{
			"type":      "request_offer",
			"requestId": requestID,
		},
	}
	return SendNotificationToToken(ctx, providerToken, payload)
}

// SendBookingConfirmedNotification notifies the owner their request was accepted
func SendBookingConfirmedNotification(ctx context.Context, ownerToken string, bookingID uint, providerName string) error {
	payload := NotificationPayload{
		Title: "Booking confirmed",
		Body:  fmt.Sprintf("%s accepted your request", providerName),
		Data: map[string]interface{}{
			"type":      "booking_confirmed",
			"bookingId": bookingID,
		},
	}
	return SendNotificationToToken(ctx, ownerToken, payload)
}

// SendSOSNotification pushes an SOS alert to the booking counterparty
func SendSOSNotification(ctx context.Context, token string, bookingID uint, message string) error {
	body := "SOS raised on an active booking"
	if message != "" {
		body = message
	}
	payload := NotificationPayload{
		Title: "SOS alert",
		Body:  body,
		Data: map[string]interface{}{
			"type":      "sos_alert",
			"bookingId": bookingID,
		},
	}
	return SendNotificationToToken(ctx, token, payload)
}
