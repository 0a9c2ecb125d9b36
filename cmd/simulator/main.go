package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Vehicle mirrors the registration payload and response of the API.
type Vehicle struct {
	ID       string `json:"id,omitempty"`
	Plate    string `json:"plate"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	OdoKm    int64  `json:"odo_km"`
	FuelType string `json:"fuel_type"`
	Usage    string `json:"usage"`
}

// OdometerReading is the MQTT payload consumed by the ingest side.
type OdometerReading struct {
	VehicleID  string    `json:"vehicle_id"`
	OdoKm      int64     `json:"odo_km"`
	RecordedAt time.Time `json:"recorded_at"`
}

// VehicleState tracks a simulated vehicle between ticks.
type VehicleState struct {
	VehicleID    string
	Usage        string
	OdoKm        int64
	TankLiters   float64
	FuelLiters   float64
	EconomyKml   float64
	KmSinceSvc   int64
	LastFillOdo  int64
	PriceCentsPL int64 // fuel price per liter in cents
}

var usages = []string{"urban", "highway", "mixed"}

var makes = []string{"Fiat", "Volkswagen", "Chevrolet", "Toyota", "Hyundai"}

var modelsByMake = map[string][]string{
	"Fiat":       {"Argo", "Mobi", "Toro", "Strada"},
	"Volkswagen": {"Gol", "Polo", "T-Cross", "Saveiro"},
	"Chevrolet":  {"Onix", "Tracker", "S10"},
	"Toyota":     {"Corolla", "Hilux", "Yaris"},
	"Hyundai":    {"HB20", "Creta"},
}

const plateLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// randomPlate generates a Mercosul-format plate, e.g. BRA2E19.
func randomPlate() string {
	b := make([]byte, 7)
	for _, i := range []int{0, 1, 2, 4} {
		b[i] = plateLetters[rand.Intn(len(plateLetters))]
	}
	for _, i := range []int{3, 5, 6} {
		b[i] = byte('0' + rand.Intn(10))
	}
	return string(b)
}

// tickKm returns the distance driven in one tick for a usage profile.
func tickKm(usage string) int64 {
	switch usage {
	case "highway":
		return 40 + rand.Int63n(80)
	case "mixed":
		return 15 + rand.Int63n(45)
	default:
		return 5 + rand.Int63n(25)
	}
}

var authToken string

func authorizedPost(url string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func postJSON(url string, payload interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	resp, err := authorizedPost(url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("request to %s failed with status: %d", url, resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result, nil
}

// ensureToken logs in with the simulator account, registering it first when
// it does not exist yet.
func ensureToken(apiURL string) error {
	if authToken = os.Getenv("SIM_AUTH_TOKEN"); authToken != "" {
		return nil
	}

	creds := map[string]string{
		"username": "simulator",
		"password": "sim-password-1",
	}

	result, err := postJSON(apiURL+"/auth/login", creds)
	if err != nil {
		register := map[string]string{
			"username": creds["username"],
			"password": creds["password"],
			"email":    "simulator@example.com",
			"role":     "operator",
		}
		if _, err := postJSON(apiURL+"/auth/register", register); err != nil {
			return fmt.Errorf("failed to register simulator user: %w", err)
		}
		result, err = postJSON(apiURL+"/auth/login", creds)
		if err != nil {
			return fmt.Errorf("failed to log in simulator user: %w", err)
		}
	}

	token, ok := result["token"].(string)
	if !ok {
		return fmt.Errorf("invalid token in login response")
	}
	authToken = token
	return nil
}

func createVehicle(apiURL string) (*VehicleState, error) {
	mk := makes[rand.Intn(len(makes))]
	model := modelsByMake[mk][rand.Intn(len(modelsByMake[mk]))]
	usage := usages[rand.Intn(len(usages))]
	odo := int64(10000 + rand.Intn(150000))

	vehicle := Vehicle{
		Plate:    randomPlate(),
		Make:     mk,
		Model:    model,
		Year:     2018 + rand.Intn(8),
		OdoKm:    odo,
		FuelType: "flex",
		Usage:    usage,
	}

	result, err := postJSON(apiURL+"/vehicles", vehicle)
	if err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	vehicleID, ok := result["id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid vehicle ID in response")
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicleID,
		"plate":      vehicle.Plate,
		"make":       mk,
		"model":      model,
		"usage":      usage,
	}).Info("Created vehicle")

	tank := 45.0 + rand.Float64()*15
	return &VehicleState{
		VehicleID:    vehicleID,
		Usage:        usage,
		OdoKm:        odo,
		TankLiters:   tank,
		FuelLiters:   tank * (0.4 + rand.Float64()*0.6),
		EconomyKml:   9 + rand.Float64()*5,
		LastFillOdo:  odo,
		PriceCentsPL: 550 + rand.Int63n(150),
	}, nil
}

// fuelFillPayload computes a full-tank fill for the distance driven since
// the last fill.
func fuelFillPayload(s *VehicleState) map[string]interface{} {
	liters := s.TankLiters - s.FuelLiters
	if liters < 1 {
		liters = 1
	}
	return map[string]interface{}{
		"date":        time.Now().Format(time.RFC3339),
		"liters":      liters,
		"price_cents": int64(liters * float64(s.PriceCentsPL)),
		"odo_km":      s.OdoKm,
		"full_tank":   true,
	}
}

func maintenancePayload(s *VehicleState) map[string]interface{} {
	kinds := []string{"Oil change", "Brake pads", "Tire rotation", "Air filter"}
	return map[string]interface{}{
		"type":        kinds[rand.Intn(len(kinds))],
		"date":        time.Now().Format(time.RFC3339),
		"odo_km":      s.OdoKm,
		"price_cents": int64(8000 + rand.Intn(42000)),
		"vendor":      "Sim Auto Center",
	}
}

func publishOdometer(client mqtt.Client, s *VehicleState) {
	reading := OdometerReading{
		VehicleID:  s.VehicleID,
		OdoKm:      s.OdoKm,
		RecordedAt: time.Now(),
	}
	data, err := json.Marshal(reading)
	if err != nil {
		log.WithError(err).Error("Failed to marshal odometer reading")
		return
	}
	topic := fmt.Sprintf("fleet/%s/odometer", s.VehicleID)
	if token := client.Publish(topic, 1, false, data); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Error("Failed to publish odometer reading")
	}
}

func postOdometer(apiURL string, s *VehicleState) {
	payload := map[string]interface{}{"odo_km": s.OdoKm}
	if _, err := postJSON(apiURL+"/vehicles/"+s.VehicleID+"/odometer", payload); err != nil {
		log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to post odometer")
	}
}

func simulateVehicle(apiURL string, mqttClient mqtt.Client, s *VehicleState, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for range tick.C {
		km := tickKm(s.Usage)
		s.OdoKm += km
		s.KmSinceSvc += km
		s.FuelLiters -= float64(km) / s.EconomyKml

		if mqttClient != nil {
			publishOdometer(mqttClient, s)
		} else {
			postOdometer(apiURL, s)
		}

		// refill when the tank runs low
		if s.FuelLiters < s.TankLiters*0.15 {
			if _, err := postJSON(apiURL+"/vehicles/"+s.VehicleID+"/fuel", fuelFillPayload(s)); err != nil {
				log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to record fuel fill")
			} else {
				log.WithFields(log.Fields{
					"vehicle_id": s.VehicleID,
					"odo_km":     s.OdoKm,
				}).Info("Recorded fuel fill")
			}
			s.FuelLiters = s.TankLiters
			s.LastFillOdo = s.OdoKm
		}

		if s.KmSinceSvc > 10000 {
			if _, err := postJSON(apiURL+"/vehicles/"+s.VehicleID+"/maintenance", maintenancePayload(s)); err != nil {
				log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to record maintenance")
			} else {
				log.WithFields(log.Fields{
					"vehicle_id": s.VehicleID,
					"odo_km":     s.OdoKm,
				}).Info("Recorded maintenance")
			}
			s.KmSinceSvc = 0
		}
	}
}

func main() {
	fleetSize := 10
	if val := os.Getenv("FLEET_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			fleetSize = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api/v1"
	}

	interval := 2 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"interval":   interval,
	}).Info("Starting fleet simulation")

	if err := ensureToken(apiURL); err != nil {
		log.WithError(err).Fatal("Failed to obtain auth token")
	}

	var mqttClient mqtt.Client
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID("vehicle-ledger-sim")
		mqttClient = mqtt.NewClient(opts)
		if token := mqttClient.Connect(); token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).Fatal("Failed to connect to MQTT broker")
		}
		log.WithField("broker", broker).Info("Publishing odometer readings over MQTT")
	}

	states := make([]*VehicleState, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		state, err := createVehicle(apiURL)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		states = append(states, state)
	}

	log.WithField("created_vehicles", len(states)).Info("Vehicle creation completed")
	if len(states) == 0 {
		log.Error("No vehicles created. Ensure the API is reachable. Exiting.")
		return
	}

	for _, s := range states {
		go simulateVehicle(apiURL, mqttClient, s, interval)
	}

	log.Info("Fleet simulation started")
	select {} // Block forever
}
