/*
 * Copyright 2026 WiCAN Tools Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package discovery

import (
	"fmt"
	"net"
)

// routeProbeAddr is only ever "connected" to over UDP to read back the
// local-side address of the default route; no packet leaves the host.
const routeProbeAddr = "8.8.8.8:80"

const (
	sweepFirstHost = 1
	sweepLastHost  = 254
)

// outboundLocalAddr returns the local IP the kernel would use for
// outbound traffic.
func outboundLocalAddr() (net.IP, error) {
	conn, err := net.Dial("udp4", routeProbeAddr)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = conn.Close()
	}()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, net.InvalidAddrError("not a UDP address")
	}

	return addr.IP, nil
}

// subnetPrefix returns the first three octets of an IPv4 address, or
// "" for anything that is not IPv4.
func subnetPrefix(ip net.IP) string {
	v4 := ip.To4()
	if v4 == nil {
		return ""
	}

	return fmt.Sprintf("%d.%d.%d", v4[0], v4[1], v4[2])
}

// expandSubnet lists the 254 host addresses of a three-octet prefix in
// ascending final-octet order.
func expandSubnet(subnet string) []string {
	hosts := make([]string, 0, sweepLastHost-sweepFirstHost+1)

	for i := sweepFirstHost; i <= sweepLastHost; i++ {
		hosts = append(hosts, fmt.Sprintf("%s.%d", subnet, i))
	}

	return hosts
}
