package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-phono/internal/bluetooth"
)

// createBluetoothCommand создает команду bluetooth с подкомандами
func (app *Application) createBluetoothCommand(ctx context.Context) *cobra.Command {
	btCmd := &cobra.Command{
		Use:   "bluetooth",
		Short: "Manage bluetooth audio devices",
		Long:  `List and connect bluetooth audio devices for playback output.`,
	}

	btCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known bluetooth devices",
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.listBluetoothDevices(ctx)
		},
	})

	var watch bool
	connectCmd := &cobra.Command{
		Use:   "connect [MAC]",
		Short: "Connect a bluetooth device by MAC address",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.connectBluetoothDevice(ctx, args[0], watch)
		},
	}
	connectCmd.Flags().BoolVar(&watch, "watch", false,
		"stay running and pause playback if the device disconnects")
	btCmd.AddCommand(connectCmd)

	btCmd.AddCommand(&cobra.Command{
		Use:   "disconnect [MAC]",
		Short: "Disconnect a bluetooth device",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			adapter, err := app.newBluetoothAdapter()
			if err != nil {
				return err
			}
			if err := adapter.Disconnect(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("✅ Устройство отключено")
			return nil
		},
	})

	return btCmd
}

// newBluetoothAdapter проверяет, что bluetooth доступен и разрешен
func (app *Application) newBluetoothAdapter() (*bluetooth.Adapter, error) {
	if !app.Config.Bluetooth {
		return nil, fmt.Errorf("bluetooth выключен: задайте bluetooth: true в %s", defaultConfigPath)
	}

	adapter := bluetooth.NewAdapter(app.Logger)
	if !adapter.Available() {
		return nil, fmt.Errorf("bluetoothctl не найден в системе")
	}
	return adapter, nil
}

func (app *Application) listBluetoothDevices(ctx context.Context) error {
	adapter, err := app.newBluetoothAdapter()
	if err != nil {
		return err
	}

	devices, err := adapter.Devices(ctx)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		fmt.Println("📡 Известные bluetooth устройства не найдены")
		return nil
	}

	fmt.Printf("📡 Найдено устройств: %d\n\n", len(devices))
	for _, device := range devices {
		status := ""
		if adapter.Connected(ctx, device.MAC) {
			status = " ✅ подключено"
		}
		fmt.Printf("   %s  %s%s\n", device.MAC, device.Name, status)
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'phono bluetooth connect [MAC]' для подключения")
	return nil
}

func (app *Application) connectBluetoothDevice(ctx context.Context, mac string, watch bool) error {
	adapter, err := app.newBluetoothAdapter()
	if err != nil {
		return err
	}

	fmt.Printf("📡 Подключаем устройство %s...\n", mac)
	if err := adapter.Connect(ctx, mac); err != nil {
		return err
	}

	fmt.Println("✅ Устройство подключено")

	if !watch {
		return nil
	}

	// Следим за подключением; при потере устройства ставим воспроизведение
	// на паузу, чтобы звук не ушел на встроенный динамик
	fmt.Println("👀 Следим за подключением. [Ctrl+C] - остановить")
	adapter.Watch(ctx, mac, func() {
		fmt.Println("\n⚠️  Устройство отключилось, ставим воспроизведение на паузу")
		if app.Coordinator.Snapshot().IsPlaying() {
			app.Coordinator.TogglePlayPause()
		}
	})
	return nil
}
