// Package wear publishes sector wear telemetry over MQTT.
package wear

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Report is one wear observation of a sector.
type Report struct {
	Device     string `json:"device"`
	Sector     uint32 `json:"sector"`
	WriteCount uint32 `json:"write_count"`
	Time       int64  `json:"time"`
}

// Reporter publishes wear reports for one device.
type Reporter struct {
	Client paho.Client
	Topic  string
	Device string
}

// NewReporter connects to the broker at serverURL, e.g.
// mqtt://host:port/topic-prefix. Reports go to
// <prefix>flash/<machine-id>/wear, retained so late subscribers see
// the last observation per device.
func NewReporter(serverURL string) (*Reporter, error) {
	id, err := machineid.ID()
	if err != nil {
		return nil, err
	}
	opts, prefix, err := clientOptionsFromURL(serverURL)
	if err != nil {
		return nil, err
	}
	opts.SetClientID("flash-" + id)
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Reporter{
		Client: client,
		Topic:  prefix + "flash/" + id + "/wear",
		Device: id,
	}, nil
}

// Publish sends one wear report. Broker acknowledgement is not waited
// for, so publishing never stalls the flash operation that triggered
// it.
func (r *Reporter) Publish(sector, writeCount uint32) {
	payload, err := json.Marshal(Report{
		Device:     r.Device,
		Sector:     sector,
		WriteCount: writeCount,
		Time:       time.Now().Unix(),
	})
	if err != nil {
		glog.Warningf("encode wear report: %v", err)
		return
	}
	token := r.Client.Publish(r.Topic, 0, true, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			glog.Warningf("publish wear report: %v", token.Error())
		}
	}()
}

// Close disconnects from the broker.
func (r *Reporter) Close() {
	r.Client.Disconnect(250)
}

func clientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server)
	return opts, topicPrefix, nil
}
