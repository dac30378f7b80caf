package k8s

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"sort"

	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
)

// NodeID returns the document id of a cluster node.
func NodeID(name string) graph.ID { return graph.ID("node/" + name) }

// NetworkID returns the document id of a pod network.
func NetworkID(cidr string) graph.ID { return graph.ID("net/" + cidr) }

// PodID returns the document id of a pod.
func PodID(namespace, name string) graph.ID { return graph.ID("pod/" + namespace + "/" + name) }

// ServiceID returns the document id of a service.
func ServiceID(namespace, name string) graph.ID { return graph.ID("svc/" + namespace + "/" + name) }

// NetworkPolicyID returns the document id of a NetworkPolicy.
func NetworkPolicyID(namespace, name string) graph.ID {
	return graph.ID("netpol/" + namespace + "/" + name)
}

// AuthorizationPolicyID returns the document id of an Istio
// AuthorizationPolicy.
func AuthorizationPolicyID(namespace, name string) graph.ID {
	return graph.ID("authz/" + namespace + "/" + name)
}

type podNetwork struct {
	id     graph.ID
	prefix netip.Prefix
}

type podRef struct {
	id        graph.ID
	namespace string
	labels    labels.Set
}

// topology accumulates a document without duplicate nodes or links.
type topology struct {
	doc      *graph.Document
	nodes    map[graph.ID]bool
	links    map[[2]graph.ID]bool
	networks map[string][]podNetwork // by cluster node name
	pods     []podRef
}

func newTopology() *topology {
	return &topology{
		doc:      &graph.Document{Nodes: []graph.NodeSpec{}, Links: []graph.LinkSpec{}},
		nodes:    make(map[graph.ID]bool),
		links:    make(map[[2]graph.ID]bool),
		networks: make(map[string][]podNetwork),
	}
}

func (t *topology) addNode(n graph.NodeSpec) {
	if t.nodes[n.ID] {
		return
	}
	t.nodes[n.ID] = true
	t.doc.Nodes = append(t.doc.Nodes, n)
}

func (t *topology) link(source, target graph.ID) {
	key := [2]graph.ID{source, target}
	if t.links[key] || !t.nodes[source] || !t.nodes[target] {
		return
	}
	t.links[key] = true
	t.doc.Links = append(t.doc.Links, graph.LinkSpec{Source: source, Target: target, Value: 1})
}

func (t *topology) selectPods(namespace string, sel labels.Selector) []graph.ID {
	var ids []graph.ID
	for _, p := range t.pods {
		if p.namespace == namespace && sel.Matches(p.labels) {
			ids = append(ids, p.id)
		}
	}
	return ids
}

// Topology converts the cluster into a topology document: cluster nodes
// become routers with their pod CIDRs as networks, pods become hosts,
// services become switches, and NetworkPolicies and Istio
// AuthorizationPolicies become firewalls linked to the pods they select.
func (c *Client) Topology(ctx context.Context, namespaces []string) (*graph.Document, error) {
	t := newTopology()

	if err := c.addClusterNodes(ctx, t); err != nil {
		return nil, err
	}
	for _, ns := range namespaces {
		if err := c.addPods(ctx, t, ns); err != nil {
			return nil, err
		}
	}
	for _, ns := range namespaces {
		if err := c.addServices(ctx, t, ns); err != nil {
			return nil, err
		}
		if err := c.addNetworkPolicies(ctx, t, ns); err != nil {
			return nil, err
		}
		if c.istio != nil {
			if err := c.addAuthorizationPolicies(ctx, t, ns); err != nil {
				return nil, err
			}
		}
	}

	slog.Debug("Cluster topology collected",
		"namespaces", len(namespaces),
		"nodes", len(t.doc.Nodes),
		"links", len(t.doc.Links))
	return t.doc, nil
}

func (c *Client) addClusterNodes(ctx context.Context, t *topology) error {
	list, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}
	items := list.Items
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	for _, n := range items {
		var addrs []string
		for _, a := range n.Status.Addresses {
			if a.Type == corev1.NodeInternalIP || a.Type == corev1.NodeExternalIP {
				addrs = append(addrs, a.Address)
			}
		}
		routerID := NodeID(n.Name)
		t.addNode(graph.NodeSpec{ID: routerID, Type: graph.NodeTypeRouter, Name: n.Name, Addrs: addrs})

		cidrs := n.Spec.PodCIDRs
		if len(cidrs) == 0 && n.Spec.PodCIDR != "" {
			cidrs = []string{n.Spec.PodCIDR}
		}
		for _, cidr := range cidrs {
			prefix, err := netip.ParsePrefix(cidr)
			if err != nil {
				slog.Warn("Skipping invalid pod CIDR", "node", n.Name, "cidr", cidr, "error", err)
				continue
			}
			netID := NetworkID(prefix.String())
			t.addNode(graph.NodeSpec{ID: netID, Type: graph.NodeTypeNetwork, Name: prefix.String(), Addrs: []string{prefix.String()}})
			t.link(routerID, netID)
			t.networks[n.Name] = append(t.networks[n.Name], podNetwork{id: netID, prefix: prefix})
		}
	}
	return nil
}

func podAddrs(p *corev1.Pod) []string {
	var addrs []string
	for _, ip := range p.Status.PodIPs {
		addrs = append(addrs, ip.IP)
	}
	if len(addrs) == 0 && p.Status.PodIP != "" {
		addrs = append(addrs, p.Status.PodIP)
	}
	return addrs
}

func (c *Client) addPods(ctx context.Context, t *topology, ns string) error {
	list, err := c.clientset.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list pods in namespace %s: %w", ns, err)
	}
	items := list.Items
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	for i := range items {
		p := &items[i]
		if p.Status.Phase == corev1.PodSucceeded || p.Status.Phase == corev1.PodFailed {
			continue
		}
		id := PodID(p.Namespace, p.Name)
		addrs := podAddrs(p)
		t.addNode(graph.NodeSpec{ID: id, Type: graph.NodeTypeHost, Name: p.Name, Addrs: addrs})
		t.pods = append(t.pods, podRef{id: id, namespace: p.Namespace, labels: labels.Set(p.Labels)})

		if p.Spec.NodeName == "" {
			continue
		}
		if !p.Spec.HostNetwork {
			if netID, ok := t.podNetwork(p.Spec.NodeName, addrs); ok {
				t.link(netID, id)
				continue
			}
		}
		t.link(NodeID(p.Spec.NodeName), id)
	}
	return nil
}

func (t *topology) podNetwork(node string, addrs []string) (graph.ID, bool) {
	for _, a := range addrs {
		ip, err := netip.ParseAddr(a)
		if err != nil {
			continue
		}
		for _, n := range t.networks[node] {
			if n.prefix.Contains(ip) {
				return n.id, true
			}
		}
	}
	return "", false
}

func (c *Client) addServices(ctx context.Context, t *topology, ns string) error {
	list, err := c.clientset.CoreV1().Services(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list services in namespace %s: %w", ns, err)
	}
	items := list.Items
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	for _, s := range items {
		if len(s.Spec.Selector) == 0 {
			continue
		}
		var addrs []string
		for _, ip := range s.Spec.ClusterIPs {
			if ip != "" && ip != corev1.ClusterIPNone {
				addrs = append(addrs, ip)
			}
		}
		if len(addrs) == 0 && s.Spec.ClusterIP != "" && s.Spec.ClusterIP != corev1.ClusterIPNone {
			addrs = append(addrs, s.Spec.ClusterIP)
		}
		id := ServiceID(s.Namespace, s.Name)
		t.addNode(graph.NodeSpec{ID: id, Type: graph.NodeTypeSwitch, Name: s.Name, Addrs: addrs})
		for _, pod := range t.selectPods(s.Namespace, labels.SelectorFromSet(s.Spec.Selector)) {
			t.link(id, pod)
		}
	}
	return nil
}

func ipBlocks(peers []networkingv1.NetworkPolicyPeer) []string {
	var cidrs []string
	for _, peer := range peers {
		if peer.IPBlock != nil && peer.IPBlock.CIDR != "" {
			cidrs = append(cidrs, peer.IPBlock.CIDR)
		}
	}
	return cidrs
}

func (c *Client) addNetworkPolicies(ctx context.Context, t *topology, ns string) error {
	list, err := c.clientset.NetworkingV1().NetworkPolicies(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list network policies in namespace %s: %w", ns, err)
	}
	items := list.Items
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	for i := range items {
		policy := &items[i]
		var addrs []string
		for _, rule := range policy.Spec.Ingress {
			addrs = append(addrs, ipBlocks(rule.From)...)
		}
		for _, rule := range policy.Spec.Egress {
			addrs = append(addrs, ipBlocks(rule.To)...)
		}

		sel, err := metav1.LabelSelectorAsSelector(&policy.Spec.PodSelector)
		if err != nil {
			return fmt.Errorf("invalid pod selector in network policy %s/%s: %w", policy.Namespace, policy.Name, err)
		}

		id := NetworkPolicyID(policy.Namespace, policy.Name)
		t.addNode(graph.NodeSpec{ID: id, Type: graph.NodeTypeFirewall, Name: policy.Name, Addrs: addrs})
		for _, pod := range t.selectPods(policy.Namespace, sel) {
			t.link(id, pod)
		}
	}
	return nil
}

func (c *Client) addAuthorizationPolicies(ctx context.Context, t *topology, ns string) error {
	list, err := c.istio.SecurityV1beta1().AuthorizationPolicies(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list authorization policies in namespace %s: %w", ns, err)
	}
	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].Name < list.Items[j].Name })

	for _, policy := range list.Items {
		var addrs []string
		for _, rule := range policy.Spec.GetRules() {
			for _, from := range rule.GetFrom() {
				src := from.GetSource()
				addrs = append(addrs, src.GetIpBlocks()...)
				addrs = append(addrs, src.GetRemoteIpBlocks()...)
			}
		}

		sel := labels.Everything()
		if matchLabels := policy.Spec.GetSelector().GetMatchLabels(); len(matchLabels) > 0 {
			sel = labels.SelectorFromSet(matchLabels)
		}

		id := AuthorizationPolicyID(policy.Namespace, policy.Name)
		t.addNode(graph.NodeSpec{ID: id, Type: graph.NodeTypeFirewall, Name: policy.Name, Addrs: addrs})
		for _, pod := range t.selectPods(policy.Namespace, sel) {
			t.link(id, pod)
		}
	}
	return nil
}
