// 演示数据填充工具，向数据库写入预置的房间、设备类型、技能、演示设备和图片。
// 重复执行是安全的，已存在的记录会被跳过。
//
// 用法:
//
//	go run ./cmd/seed            # 幂等填充演示数据
//	go run ./cmd/seed -clean     # 先清除设备、图片和同步任务再填充
//	go run ./cmd/seed -dry-run   # 只预览将要填充的数据量
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/database"
)

// 预置房间名
var seedRoomNames = []string{"bedroom", "living room", "kitchen", "bathroom", "hall", "office", "garage", "basement"}

// 预置技能名
var seedSkillNames = []string{"climate", "curtain", "switch", "scene", "iot-state", "picture-display", "spotify"}

// 设备类型及其负责技能，切片保证创建顺序稳定
var seedDeviceTypes = []struct {
	Name  string
	Skill string
}{
	{"light", "switch"},
	{"switch", "switch"},
	{"plug", "switch"},
	{"bulb", "switch"},
	{"scene", "scene"},
	{"curtain", "curtain"},
	{"thermostat", "climate"},
	{"window_sensor", "iot-state"},
	{"picture_display", "picture-display"},
	{"spotify_device", "spotify"},
}

// 每种设备类型的演示设备名
var seedDeviceNames = map[string][]string{
	"light":           {"ceiling", "wall", "worktop", "countertop", "desk"},
	"switch":          {"main", "secondary", "wall_rocker"},
	"plug":            {"chair_lamp", "desk_lamp", "shelf_light", "tripod", "cone"},
	"bulb":            {"ceiling", "pendant", "floor"},
	"scene":           {"daylight", "night", "movie", "reading", "party"},
	"curtain":         {"curtains", "blinds", "shades"},
	"thermostat":      {"main"},
	"window_sensor":   {"window"},
	"picture_display": {"frame_alpha", "frame_beta", "kitchen_display"},
	"spotify_device":  {"soundbar", "speaker", "echo"},
}

// 不归属任何房间的设备类型（公共区域设备）
var roomlessDeviceTypes = map[string]bool{"scene": true, "spotify_device": true}

func main() {
	clean := flag.Bool("clean", false, "填充前先清除演示设备、图片和同步任务")
	dryRun := flag.Bool("dry-run", false, "只预览将要填充的数据，不写入数据库")
	flag.Parse()

	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		log.Printf("无法加载.env文件: %v", err)
	}

	// 获取配置
	cfg := config.GetConfig()

	// 创建数据库连接池
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		log.Fatalf("无法创建数据库连接池: %v", err)
	}
	db := pool.GetDB()

	// 确保表结构存在，与服务端的自动迁移保持同一份模型列表
	if err := db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.DeviceType{},
		&models.Skill{},
		&models.GlobalDevice{},
		&models.Image{},
		&models.ImmichSyncJob{},
	); err != nil {
		log.Fatalf("自动迁移失败: %v", err)
	}

	log.Println("当前数据量:")
	printCounts(db)

	if *dryRun {
		log.Println("预览模式，不会写入任何数据")
		log.Println("将填充: 8个房间, 10种设备类型, 7个技能, 约120个演示设备, 3张图片")
		return
	}

	if *clean {
		if err := clearDemoData(db); err != nil {
			log.Fatalf("清除演示数据失败: %v", err)
		}
	}

	rooms, err := ensureRooms(db)
	if err != nil {
		log.Fatalf("填充房间失败: %v", err)
	}
	deviceTypes, err := ensureDeviceTypes(db)
	if err != nil {
		log.Fatalf("填充设备类型失败: %v", err)
	}
	skills, err := ensureSkills(db)
	if err != nil {
		log.Fatalf("填充技能失败: %v", err)
	}
	deviceCount, err := ensureDevices(db, rooms, deviceTypes, skills)
	if err != nil {
		log.Fatalf("填充设备失败: %v", err)
	}
	imageCount, err := ensureImages(db)
	if err != nil {
		log.Fatalf("填充图片失败: %v", err)
	}

	log.Printf("演示数据填充完成: 新增%d个设备, %d张图片", deviceCount, imageCount)
	log.Println("填充后数据量:")
	printCounts(db)
}

// printCounts 打印各表当前的记录数
func printCounts(db *gorm.DB) {
	tables := []struct {
		label string
		model interface{}
	}{
		{"房间", &models.Room{}},
		{"设备类型", &models.DeviceType{}},
		{"技能", &models.Skill{}},
		{"设备", &models.GlobalDevice{}},
		{"图片", &models.Image{}},
		{"同步任务", &models.ImmichSyncJob{}},
	}
	for _, t := range tables {
		var count int64
		if err := db.Model(t.model).Count(&count).Error; err == nil {
			log.Printf("  %s: %d", t.label, count)
		}
	}
}

// clearDemoData 按依赖顺序清除演示数据，保留房间、设备类型、技能和用户
func clearDemoData(db *gorm.DB) error {
	log.Println("正在清除演示数据")

	// 同步任务引用设备，必须先删
	if err := db.Where("1 = 1").Delete(&models.ImmichSyncJob{}).Error; err != nil {
		return err
	}
	if err := db.Where("1 = 1").Delete(&models.GlobalDevice{}).Error; err != nil {
		return err
	}
	if err := db.Where("1 = 1").Delete(&models.Image{}).Error; err != nil {
		return err
	}

	log.Println("演示数据已清除，基础实体表保持不变")
	return nil
}

// ensureRooms 幂等创建预置房间，返回 名称 -> 房间 映射
func ensureRooms(db *gorm.DB) (map[string]models.Room, error) {
	rooms := make(map[string]models.Room, len(seedRoomNames))
	for _, name := range seedRoomNames {
		var room models.Room
		err := db.Where("name = ?", name).First(&room).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			room = models.Room{Name: name}
			if err := db.Create(&room).Error; err != nil {
				return nil, err
			}
			log.Printf("创建房间: %s", name)
		} else if err != nil {
			return nil, err
		}
		rooms[name] = room
	}
	log.Printf("房间就绪: %d个", len(rooms))
	return rooms, nil
}

// ensureDeviceTypes 幂等创建预置设备类型，返回 名称 -> 类型 映射
func ensureDeviceTypes(db *gorm.DB) (map[string]models.DeviceType, error) {
	deviceTypes := make(map[string]models.DeviceType, len(seedDeviceTypes))
	for _, entry := range seedDeviceTypes {
		var deviceType models.DeviceType
		err := db.Where("name = ?", entry.Name).First(&deviceType).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			deviceType = models.DeviceType{Name: entry.Name}
			if err := db.Create(&deviceType).Error; err != nil {
				return nil, err
			}
			log.Printf("创建设备类型: %s", entry.Name)
		} else if err != nil {
			return nil, err
		}
		deviceTypes[entry.Name] = deviceType
	}
	log.Printf("设备类型就绪: %d种", len(deviceTypes))
	return deviceTypes, nil
}

// ensureSkills 幂等创建预置技能，返回 名称 -> 技能 映射
func ensureSkills(db *gorm.DB) (map[string]models.Skill, error) {
	skills := make(map[string]models.Skill, len(seedSkillNames))
	for _, name := range seedSkillNames {
		var skill models.Skill
		err := db.Where("name = ?", name).First(&skill).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			skill = models.Skill{Name: name}
			if err := db.Create(&skill).Error; err != nil {
				return nil, err
			}
			log.Printf("创建技能: %s", name)
		} else if err != nil {
			return nil, err
		}
		skills[name] = skill
	}
	log.Printf("技能就绪: %d个", len(skills))
	return skills, nil
}

// ensureDevices 为每个房间创建演示设备，每种类型最多取前两个设备名，
// 场景和Spotify设备作为公共区域设备单独创建。返回新增设备数。
func ensureDevices(
	db *gorm.DB,
	rooms map[string]models.Room,
	deviceTypes map[string]models.DeviceType,
	skills map[string]models.Skill,
) (int, error) {
	created := 0

	for _, roomName := range seedRoomNames {
		room := rooms[roomName]
		for _, entry := range seedDeviceTypes {
			if roomlessDeviceTypes[entry.Name] {
				continue
			}
			names := seedDeviceNames[entry.Name]
			if len(names) > 2 {
				names = names[:2]
			}
			for _, deviceName := range names {
				isNew, err := ensureDevice(db, deviceName, entry.Name, &room, deviceTypes[entry.Name], skills[entry.Skill])
				if err != nil {
					return created, err
				}
				if isNew {
					created++
				}
			}
		}
	}

	// 公共区域设备不关联房间
	for _, entry := range seedDeviceTypes {
		if !roomlessDeviceTypes[entry.Name] {
			continue
		}
		for _, deviceName := range seedDeviceNames[entry.Name] {
			isNew, err := ensureDevice(db, deviceName, entry.Name, nil, deviceTypes[entry.Name], skills[entry.Skill])
			if err != nil {
				return created, err
			}
			if isNew {
				created++
			}
		}
	}

	log.Printf("设备就绪: 新增%d个", created)
	return created, nil
}

// ensureDevice 按 名称+类型+房间 判重，不存在时创建一个带演示属性的设备
func ensureDevice(
	db *gorm.DB,
	name string,
	typeName string,
	room *models.Room,
	deviceType models.DeviceType,
	skill models.Skill,
) (bool, error) {
	query := db.Model(&models.GlobalDevice{}).Where("name = ? AND device_type_id = ?", name, deviceType.ID)
	if room != nil {
		query = query.Where("room_id = ?", room.ID)
	} else {
		query = query.Where("room_id IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	roomName := ""
	var roomID *uuid.UUID
	if room != nil {
		roomName = room.Name
		roomID = &room.ID
	}

	pattern, err := json.Marshal([]string{strings.ToLower(name)})
	if err != nil {
		return false, err
	}

	device := models.GlobalDevice{
		Name:         name,
		DeviceTypeID: deviceType.ID,
		RoomID:       roomID,
		SkillID:      skill.ID,
		Pattern:      datatypes.JSON(pattern),
	}
	if attrs := demoDeviceAttributes(typeName, roomName, name); attrs != nil {
		raw, err := json.Marshal(attrs)
		if err != nil {
			return false, err
		}
		device.DeviceAttributes = datatypes.JSON(raw)
	}

	if err := db.Create(&device).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ensureImages 按存储路径判重，创建演示图片。返回新增图片数。
func ensureImages(db *gorm.DB) (int, error) {
	created := 0
	for _, img := range demoImages() {
		var count int64
		if err := db.Model(&models.Image{}).Where("storage_path = ?", img.StoragePath).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}
		image := img
		if err := db.Create(&image).Error; err != nil {
			return created, err
		}
		log.Printf("创建图片: %s", image.StoragePath)
		created++
	}
	return created, nil
}

// demoTopic 生成虚构的MQTT主题: fictional2mqtt/{room}/{device_type}/{name}/set
func demoTopic(room, deviceType, deviceName string) string {
	roomSlug := strings.ReplaceAll(strings.ToLower(room), " ", "_")
	return fmt.Sprintf("fictional2mqtt/%s/%s/%s/set", roomSlug, deviceType, deviceName)
}

// demoDeviceAttributes 按设备类型生成演示属性，window_sensor等类型没有属性时返回nil
func demoDeviceAttributes(typeName, roomName, deviceName string) map[string]interface{} {
	if roomName == "" {
		roomName = "common"
	}

	switch typeName {
	case "light", "switch", "plug", "bulb":
		return map[string]interface{}{
			"topic":       demoTopic(roomName, "switch", deviceName),
			"payload_on":  `{"state": "ON"}`,
			"payload_off": `{"state": "OFF"}`,
		}
	case "thermostat":
		return map[string]interface{}{
			"topic":                demoTopic(roomName, "thermostat", "main"),
			"payload_set_template": `{"occupied_heating_setpoint": {{ temperature }}}`,
		}
	case "curtain":
		return map[string]interface{}{
			"topic":                demoTopic(roomName, "motor", deviceName),
			"payload_open":         `{"state": "OPEN"}`,
			"payload_close":        `{"state": "CLOSE"}`,
			"payload_set_template": `{"position": {{ position }}}`,
		}
	case "scene":
		actions := make([]map[string]interface{}, 0, 3)
		for i := 0; i < 3; i++ {
			actions = append(actions, map[string]interface{}{
				"topic":   fmt.Sprintf("fictional2mqtt/scene/%s/action_%d/set", deviceName, i),
				"payload": fmt.Sprintf(`{"state": "ON", "brightness": %d}`, 50+rand.Intn(205)),
			})
		}
		return map[string]interface{}{"device_actions": actions}
	case "picture_display":
		widths := []int{1600, 1920, 800}
		heights := []int{1200, 1080, 600}
		orientations := []string{"landscape", "portrait"}
		return map[string]interface{}{
			"display_width":  widths[rand.Intn(len(widths))],
			"display_height": heights[rand.Intn(len(heights))],
			"orientation":    orientations[rand.Intn(len(orientations))],
			"model":          fmt.Sprintf("fictional_display_%d", rand.Intn(10)+1),
		}
	case "spotify_device":
		// 虚构的40位十六进制Spotify设备ID
		hex1 := strings.ReplaceAll(uuid.New().String(), "-", "")
		hex2 := strings.ReplaceAll(uuid.New().String(), "-", "")
		return map[string]interface{}{
			"spotify_id":     hex1 + hex2[:8],
			"is_main":        rand.Intn(2) == 0,
			"default_volume": 30 + rand.Intn(41),
		}
	}
	return nil
}

// demoImages 返回预置的演示图片
func demoImages() []models.Image {
	return []models.Image{
		{
			SourceName:             "manual",
			StoragePath:            "manual/mountain_landscape_001.jpg",
			Title:                  strPtr("Mountain Landscape"),
			Description:            strPtr("A serene mountain view at sunset."),
			Tags:                   strPtr("nature,mountain,sunset"),
			DisplayDurationSeconds: 60,
			Priority:               5,
		},
		{
			SourceName:             "manual",
			StoragePath:            "manual/ocean_waves_002.jpg",
			Title:                  strPtr("Ocean Waves"),
			Description:            strPtr("Waves crashing on a rocky shore."),
			Tags:                   strPtr("nature,ocean,waves"),
			DisplayDurationSeconds: 45,
			Priority:               7,
		},
		{
			SourceName:             "manual",
			StoragePath:            "manual/forest_path_003.jpg",
			Title:                  strPtr("Forest Path"),
			Tags:                   strPtr("nature,forest,path"),
			DisplayDurationSeconds: 90,
			Priority:               3,
		},
	}
}

func strPtr(s string) *string { return &s }
