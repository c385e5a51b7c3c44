package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// 设备注册表变更动作
const (
	DeviceActionCreated = "created"
	DeviceActionUpdated = "updated"
	DeviceActionDeleted = "deleted"
)

// DeviceUpdateMessage 设备注册表变更通知的消息体
type DeviceUpdateMessage struct {
	DeviceID string `json:"device_id"`
	Action   string `json:"action"`
	Source   string `json:"source"`
}

// InterfaceMQTTService 定义MQTT服务接口，仅发布不订阅
type InterfaceMQTTService interface {
	Connect() error
	Disconnect()
	PublishDeviceUpdate(deviceID, action string) error
	IsHealthy() bool
}

// MQTTService 负责向MQTT发布设备注册表变更通知
type MQTTService struct {
	Client mqtt.Client
	Config *config.Config

	// 保护发布过程，避免并发发布冲突
	PublishMutex sync.Mutex

	IsConnected    bool
	connectedMutex sync.RWMutex
}

// NewMQTTService 创建一个新的MQTT服务
func NewMQTTService(cfg *config.Config) InterfaceMQTTService {
	service := &MQTTService{
		Config: cfg,
	}

	if cfg.MQTTEnabled {
		service.setupMQTTClient()
	}

	return service
}

// setupMQTTClient 配置MQTT客户端
func (s *MQTTService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)

	// 客户端ID加随机后缀，避免多实例冲突
	clientID := fmt.Sprintf("%s_%s", s.Config.MQTTClientID, uuid.New().String()[:8])
	opts.SetClientID(clientID)

	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
		log.Printf("[MQTT] 连接丢失: %v", err)
	})

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()
		log.Printf("[MQTT] 已连接到 %s", s.Config.MQTTBrokerURL)
	})

	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		log.Printf("[MQTT] 正在重新连接...")
	})

	s.Client = mqtt.NewClient(opts)
}

// 1 Connect 连接到MQTT服务器，带有指数退避重试
func (s *MQTTService) Connect() error {
	if !s.Config.MQTTEnabled || s.Client == nil {
		return nil
	}

	log.Printf("[MQTT] 正在连接到 %s...", s.Config.MQTTBrokerURL)

	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()

	if isConnected {
		return nil
	}

	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		token := s.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			s.connectedMutex.Lock()
			s.IsConnected = true
			s.connectedMutex.Unlock()
			log.Printf("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
			return nil
		}

		err = token.Error()
		backoffTime := time.Duration(1<<uint(i)) * time.Second // 指数退避: 1s, 2s, 4s, 8s, 16s
		log.Printf("[MQTT] 连接尝试 %d/%d 失败: %v, 将在 %v 后重试", i+1, maxRetries, err, backoffTime)
		time.Sleep(backoffTime)
	}

	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %v", maxRetries, err)
}

// 2 Disconnect 断开与MQTT服务器的连接
func (s *MQTTService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
}

// 3 PublishDeviceUpdate 发布设备注册表变更通知
func (s *MQTTService) PublishDeviceUpdate(deviceID, action string) error {
	if !s.Config.MQTTEnabled || s.Client == nil {
		log.Printf("[MQTT] 发布已禁用，跳过设备%s通知: %s", action, deviceID)
		return nil
	}

	message := DeviceUpdateMessage{
		DeviceID: deviceID,
		Action:   action,
		Source:   "web-ui",
	}

	return s.publishMessage(s.Config.MQTTDeviceUpdateTopic, message)
}

// 4 IsHealthy 返回当前连接状态
func (s *MQTTService) IsHealthy() bool {
	if !s.Config.MQTTEnabled {
		return true
	}
	if s.Client == nil {
		return false
	}

	s.connectedMutex.RLock()
	defer s.connectedMutex.RUnlock()
	return s.IsConnected && s.Client.IsConnected()
}

// publishMessage 序列化并发布消息
func (s *MQTTService) publishMessage(topic string, payload interface{}) error {
	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	// 检查连接状态
	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()

	if !isConnected {
		token := s.Client.Connect()
		if !token.WaitTimeout(3*time.Second) || token.Error() != nil {
			return fmt.Errorf("MQTT客户端未连接: %v", token.Error())
		}
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()
	}

	// 序列化消息
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %v", err)
	}

	qos := byte(s.Config.MQTTQoS)
	retained := s.Config.MQTTRetained

	token := s.Client.Publish(topic, qos, retained, jsonData)

	// 设置超时时间，避免无限等待
	if !token.WaitTimeout(3 * time.Second) {
		return fmt.Errorf("发布消息超时")
	}

	if token.Error() != nil {
		return fmt.Errorf("发布消息失败: %v", token.Error())
	}

	log.Printf("[MQTT] 已发布消息到主题: %s", topic)
	return nil
}
