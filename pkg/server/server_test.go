package server_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/bluelink-community/vehicle-connect/mocks"
	"github.com/bluelink-community/vehicle-connect/pkg/bluelink"
	"github.com/bluelink-community/vehicle-connect/pkg/server"
)

const vin = "KMH0TEST00VIN0001"

const statusDocument = `{
	"vehicleStatus": {
		"time": "20260102120000",
		"doorLock": true,
		"engine": false,
		"airCtrlOn": false,
		"defrost": false,
		"evStatus": {
			"batteryStatus": 72,
			"batteryCharge": false,
			"batteryPlugin": 0,
			"drvDistance": [
				{"rangeByFuel": {"evModeRange": {"value": 310, "unit": 1}}}
			]
		}
	},
	"vehicleLocation": {
		"coord": {"lat": 52.52, "lon": 13.405, "alt": 34.5},
		"time": "20260102115500"
	},
	"odometer": {"value": 12345.6, "unit": 1}
}`

func testVehicle() *bluelink.Vehicle {
	status, err := bluelink.ParseVehicleStatus([]byte(statusDocument))
	Expect(err).NotTo(HaveOccurred())
	return &bluelink.Vehicle{
		VehicleDescription: bluelink.VehicleDescription{
			VehicleID: "veh-1",
			VIN:       vin,
			Nickname:  "Ioniq",
		},
		Status: status,
	}
}

var _ = Describe("Server", func() {
	var (
		ctrl *gomock.Controller
		vm   *mocks.VehicleManager
		s    *server.Server
	)

	sendRequest := func(method, path string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		rr := httptest.NewRecorder()
		s.ServeHTTP(rr, req)
		return rr
	}

	decode := func(rr *httptest.ResponseRecorder) server.Envelope {
		var reply server.Envelope
		Expect(json.Unmarshal(rr.Body.Bytes(), &reply)).To(Succeed())
		return reply
	}

	expectCachedRefresh := func(v *bluelink.Vehicle) {
		vm.EXPECT().CheckAndRefreshToken(gomock.Any()).Return(nil)
		vm.EXPECT().UpdateAllVehiclesWithCachedState(gomock.Any()).Return(nil)
		vm.EXPECT().GetVehicle(vin).Return(v, nil)
	}

	expectLiveRefresh := func(v *bluelink.Vehicle) {
		vm.EXPECT().CheckAndRefreshToken(gomock.Any()).Return(nil)
		vm.EXPECT().UpdateVehicleWithLatestState(gomock.Any(), vin).Return(nil)
		vm.EXPECT().GetVehicle(vin).Return(v, nil)
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		vm = mocks.NewVehicleManager(ctrl)
		s = server.New(vm, vin)
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	Context("routing", func() {
		It("returns an error envelope for unknown routes", func() {
			rr := sendRequest(http.MethodGet, "/does/not/exist", nil)
			Expect(rr.Code).To(Equal(http.StatusNotFound))
			reply := decode(rr)
			Expect(reply.Success).To(BeFalse())
			Expect(reply.CommandInvoked).To(Equal("route_not_found"))
		})

		It("rejects wrong methods", func() {
			rr := sendRequest(http.MethodPost, "/status", nil)
			Expect(rr.Code).To(Equal(http.StatusMethodNotAllowed))
			reply := decode(rr)
			Expect(reply.Success).To(BeFalse())
			Expect(reply.CommandInvoked).To(Equal("status_cached"))
		})

		It("serves the root banner", func() {
			rr := sendRequest(http.MethodGet, "/", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
			reply := decode(rr)
			Expect(reply.Success).To(BeTrue())
			Expect(reply.CommandInvoked).To(Equal("root"))
		})

		It("serves the endpoint catalog", func() {
			rr := sendRequest(http.MethodGet, "/info", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
			reply := decode(rr)
			Expect(reply.Success).To(BeTrue())
			Expect(reply.CommandInvoked).To(Equal("info"))
		})
	})

	Context("status reads", func() {
		It("returns the raw cached status document", func() {
			expectCachedRefresh(testVehicle())
			rr := sendRequest(http.MethodGet, "/status", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))

			var reply struct {
				Success        bool            `json:"success"`
				CommandInvoked string          `json:"command_invoked"`
				Data           json.RawMessage `json:"data"`
			}
			Expect(json.Unmarshal(rr.Body.Bytes(), &reply)).To(Succeed())
			Expect(reply.Success).To(BeTrue())
			Expect(reply.CommandInvoked).To(Equal("status_cached"))
			Expect(string(reply.Data)).To(MatchJSON(statusDocument))
		})

		It("forces a live poll on /status/refresh", func() {
			expectLiveRefresh(testVehicle())
			rr := sendRequest(http.MethodGet, "/status/refresh", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(decode(rr).CommandInvoked).To(Equal("status_live"))
		})

		It("returns the state of charge", func() {
			expectLiveRefresh(testVehicle())
			rr := sendRequest(http.MethodGet, "/status/soc", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
			data, ok := decode(rr).Data.(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(data["soc"]).To(BeNumerically("==", 72))
			Expect(data["unit"]).To(Equal("%"))
		})

		It("returns the driving range", func() {
			expectLiveRefresh(testVehicle())
			rr := sendRequest(http.MethodGet, "/status/range", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
			data, ok := decode(rr).Data.(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(data["range"]).To(BeNumerically("==", 310))
			Expect(data["unit"]).To(Equal("km"))
		})

		It("returns the odometer on both odometer routes", func() {
			for _, path := range []string{"/odometer", "/odometer/refresh"} {
				expectLiveRefresh(testVehicle())
				rr := sendRequest(http.MethodGet, path, nil)
				Expect(rr.Code).To(Equal(http.StatusOK))
				data, ok := decode(rr).Data.(map[string]interface{})
				Expect(ok).To(BeTrue())
				Expect(data["odometer"]).To(BeNumerically("==", 12345.6))
			}
		})

		It("returns the location with the backend fix time", func() {
			expectLiveRefresh(testVehicle())
			rr := sendRequest(http.MethodGet, "/location", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
			data, ok := decode(rr).Data.(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(data["latitude"]).To(BeNumerically("~", 52.52, 1e-9))
			Expect(data["longitude"]).To(BeNumerically("~", 13.405, 1e-9))
			Expect(data).To(HaveKey("last_updated"))
		})

		It("returns not found when the vehicle lacks the requested field", func() {
			v := testVehicle()
			v.Status.Status.EVStatus = nil
			expectLiveRefresh(v)
			rr := sendRequest(http.MethodGet, "/status/soc", nil)
			Expect(rr.Code).To(Equal(http.StatusNotFound))
			reply := decode(rr)
			Expect(reply.Success).To(BeFalse())
			Expect(reply.Details).To(ContainSubstring("not available"))
		})

		It("maps unknown VINs to not found", func() {
			vm.EXPECT().CheckAndRefreshToken(gomock.Any()).Return(nil)
			vm.EXPECT().UpdateVehicleWithLatestState(gomock.Any(), vin).
				Return(fmt.Errorf("%w: %s", bluelink.ErrVehicleNotFound, vin))
			rr := sendRequest(http.MethodGet, "/status/refresh", nil)
			Expect(rr.Code).To(Equal(http.StatusNotFound))
		})

		It("maps upstream failures to internal server error", func() {
			vm.EXPECT().CheckAndRefreshToken(gomock.Any()).Return(errors.New("backend down"))
			rr := sendRequest(http.MethodGet, "/status", nil)
			Expect(rr.Code).To(Equal(http.StatusInternalServerError))
			reply := decode(rr)
			Expect(reply.Success).To(BeFalse())
			Expect(reply.Error).To(Equal("Error during status_cached."))
			Expect(reply.Details).To(ContainSubstring("backend down"))
		})
	})

	Context("control commands", func() {
		It("locks the doors", func() {
			vm.EXPECT().Lock(gomock.Any(), vin).Return("action-1", nil)
			rr := sendRequest(http.MethodPost, "/lock", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
			reply := decode(rr)
			Expect(reply.Success).To(BeTrue())
			Expect(reply.Message).To(Equal("lock successful."))
			data, ok := reply.Data.(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(data["result"]).To(Equal("action-1"))
		})

		It("unlocks the doors", func() {
			vm.EXPECT().Unlock(gomock.Any(), vin).Return("action-2", nil)
			rr := sendRequest(http.MethodPost, "/unlock", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
		})

		It("starts climate with the requested options", func() {
			expected := bluelink.ClimateOptions{
				Temperature: 21.5,
				Defrost:     true,
				Climate:     true,
				Heating:     false,
			}
			vm.EXPECT().StartClimate(gomock.Any(), vin, expected).Return("action-3", nil)
			body := []byte(`{"temperature": 21.5, "defrost": true, "heating": false}`)
			rr := sendRequest(http.MethodPost, "/climate/start", body)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(decode(rr).CommandInvoked).To(Equal("climate_start"))
		})

		It("rejects climate start without a temperature", func() {
			rr := sendRequest(http.MethodPost, "/climate/start", []byte(`{}`))
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rr).Details).To(ContainSubstring("temperature"))
		})

		It("rejects out-of-range temperatures", func() {
			rr := sendRequest(http.MethodPost, "/climate/start", []byte(`{"temperature": 45}`))
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rr).Details).To(ContainSubstring("invalid temperature"))
		})

		It("rejects malformed JSON bodies", func() {
			rr := sendRequest(http.MethodPost, "/climate/start", []byte(`{"temperature": `))
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rr).Details).To(ContainSubstring("JSON"))
		})

		It("stops climate", func() {
			vm.EXPECT().StopClimate(gomock.Any(), vin).Return("action-4", nil)
			rr := sendRequest(http.MethodPost, "/climate/stop", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
		})

		It("starts and stops charging", func() {
			vm.EXPECT().StartCharge(gomock.Any(), vin).Return("action-5", nil)
			Expect(sendRequest(http.MethodPost, "/charge/start", nil).Code).To(Equal(http.StatusOK))

			vm.EXPECT().StopCharge(gomock.Any(), vin).Return("action-6", nil)
			Expect(sendRequest(http.MethodPost, "/charge/stop", nil).Code).To(Equal(http.StatusOK))
		})

		It("maps duplicate requests to too many requests", func() {
			vm.EXPECT().Lock(gomock.Any(), vin).Return("", bluelink.ErrDuplicateRequest)
			rr := sendRequest(http.MethodPost, "/lock", nil)
			Expect(rr.Code).To(Equal(http.StatusTooManyRequests))
			reply := decode(rr)
			Expect(reply.Success).To(BeFalse())
			Expect(reply.Error).To(Equal("Error during lock."))
		})
	})

	Context("alert webhook", func() {
		It("delivers an alert after a control command", func() {
			alerts := make(chan map[string]interface{}, 1)
			webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var payload map[string]interface{}
				Expect(json.NewDecoder(r.Body).Decode(&payload)).To(Succeed())
				alerts <- payload
			}))
			DeferCleanup(webhook.Close)
			s.Notifier = server.NewNotifier(webhook.URL)

			vm.EXPECT().Lock(gomock.Any(), vin).Return("action-1", nil)
			rr := sendRequest(http.MethodPost, "/lock", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))

			var payload map[string]interface{}
			Eventually(alerts).Should(Receive(&payload))
			Expect(payload["command"]).To(Equal("lock"))
			Expect(payload["vin"]).To(Equal(vin))
			Expect(payload["success"]).To(Equal(true))
		})
	})
})
