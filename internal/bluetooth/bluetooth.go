// Package bluetooth содержит адаптер для работы с bluetooth аудио устройствами
// через утилиту bluetoothctl. На системах без bluetoothctl адаптер сообщает
// об отсутствии возможности, и остальной функционал работает как обычно.
package bluetooth

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// pollInterval — период опроса состояния подключения
const pollInterval = 3 * time.Second

// Device описывает известное bluetooth устройство
type Device struct {
	MAC  string
	Name string
}

// Adapter управляет bluetooth устройствами через bluetoothctl
type Adapter struct {
	logger *zap.Logger
}

// NewAdapter создает новый адаптер
func NewAdapter(logger *zap.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// Available проверяет наличие bluetoothctl в системе
func (a *Adapter) Available() bool {
	_, err := exec.LookPath("bluetoothctl")
	return err == nil
}

// Devices возвращает список известных устройств
func (a *Adapter) Devices(ctx context.Context) ([]Device, error) {
	output, err := exec.CommandContext(ctx, "bluetoothctl", "devices").Output()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка устройств: %w", err)
	}
	return parseDevices(string(output)), nil
}

// Connect подключает устройство по MAC адресу
func (a *Adapter) Connect(ctx context.Context, mac string) error {
	output, err := exec.CommandContext(ctx, "bluetoothctl", "connect", mac).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ошибка подключения %s: %w", mac, err)
	}
	if !strings.Contains(string(output), "Connection successful") {
		return fmt.Errorf("устройство %s не подключилось", mac)
	}

	a.logger.Info("bluetooth устройство подключено", zap.String("mac", mac))
	return nil
}

// Disconnect отключает устройство
func (a *Adapter) Disconnect(ctx context.Context, mac string) error {
	if _, err := exec.CommandContext(ctx, "bluetoothctl", "disconnect", mac).Output(); err != nil {
		return fmt.Errorf("ошибка отключения %s: %w", mac, err)
	}

	a.logger.Info("bluetooth устройство отключено", zap.String("mac", mac))
	return nil
}

// Connected проверяет, подключено ли устройство
func (a *Adapter) Connected(ctx context.Context, mac string) bool {
	output, err := exec.CommandContext(ctx, "bluetoothctl", "info", mac).Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(output), "Connected: yes")
}

// Watch следит за подключением устройства и вызывает onDisconnect при его
// потере. Блокируется до отмены контекста.
func (a *Adapter) Watch(ctx context.Context, mac string, onDisconnect func()) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	wasConnected := a.Connected(ctx, mac)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			connected := a.Connected(ctx, mac)
			if wasConnected && !connected {
				a.logger.Warn("потеряно bluetooth подключение", zap.String("mac", mac))
				if onDisconnect != nil {
					onDisconnect()
				}
			}
			wasConnected = connected
		}
	}
}

// parseDevices разбирает вывод bluetoothctl devices:
//
//	Device AA:BB:CC:DD:EE:FF JBL Flip 5
func parseDevices(output string) []Device {
	var devices []Device
	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), " ", 3)
		if len(parts) < 3 || parts[0] != "Device" {
			continue
		}
		devices = append(devices, Device{MAC: parts[1], Name: parts[2]})
	}
	return devices
}
