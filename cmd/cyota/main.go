// Command cyota inspects .cyacd firmware images and flashes them to Cypress
// bootloaders over BLE.
package main

func main() {
	Execute()
}
