package main

import (
	"fmt"

	"github.com/google/uuid"
)

func main() {
	fmt.Println("OTA Server - API Token Generator")
	fmt.Println("================================")
	fmt.Println()

	token := uuid.NewString()

	fmt.Println("Add this to your .env file:")
	fmt.Println("---------------------------")
	fmt.Printf("OTA_API_TOKEN=%s\n", token)
	fmt.Println()
	fmt.Println("SECURITY WARNING:")
	fmt.Println("   - Keep this token SECRET and SECURE")
	fmt.Println("   - Never commit this token to version control")
	fmt.Println("   - Every device in the fleet shares it; rotating it means")
	fmt.Println("     updating device provisioning as well")
	fmt.Println()
}
